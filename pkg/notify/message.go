package notify

import "fmt"

// Subject is the fixed subject line of every price-drop mail.
const Subject = "Cena spadła!"

// Body renders the plain-text mail body for a price drop.
func Body(name string, lowestPrice int, sourceURL string) string {
	return fmt.Sprintf("%s kosztuje teraz %d pln!\n%s", name, lowestPrice, sourceURL)
}
