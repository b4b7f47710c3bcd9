package domain

// Карта в нотации "As", "Td", "7c": ранг + масть
type Card string

const HiddenCard Card = "??"

var (
	CardRanks = []byte("23456789TJQKA")
	CardSuits = []byte("shdc")
)

// NewDeck возвращает упорядоченную колоду из 52 карт
func NewDeck() []Card {
	deck := make([]Card, 0, len(CardRanks)*len(CardSuits))
	for _, s := range CardSuits {
		for _, r := range CardRanks {
			deck = append(deck, Card([]byte{r, s}))
		}
	}
	return deck
}
