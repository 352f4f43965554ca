package model

// Item is the metadata recorded for one tagged physical item.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	BuyDate  string `json:"buy_date"`
	Owner    string `json:"owner"`
	Remark   string `json:"remark"`
	Photo    string `json:"photo"`
}

// EmptyItem returns the record for an id that has never been saved.
func EmptyItem(id string) *Item {
	return &Item{ID: id}
}

// PhotoPrefix is the URL prefix uploaded photos are served under.
const PhotoPrefix = "/uploads/"
