// internal/tools/market/models.go
package market

import "time"

// Record is a single mandi price row from the data.gov.in commodity feed.
// ArrivalDate arrives as DD/MM/YYYY; ModalPrice is kept as the raw string
// because the feed reports it that way (rupees per quintal).
type Record struct {
	State       string `json:"state"`
	District    string `json:"district"`
	Market      string `json:"market"`
	Commodity   string `json:"commodity"`
	ArrivalDate string `json:"arrival_date"`
	ModalPrice  string `json:"modal_price"`
}

const arrivalDateLayout = "02/01/2006"

// arrivalTime parses the record's arrival date. Unparseable dates sort last.
func (r Record) arrivalTime() time.Time {
	t, err := time.Parse(arrivalDateLayout, r.ArrivalDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

type feedResponse struct {
	Records []Record `json:"records"`
}
