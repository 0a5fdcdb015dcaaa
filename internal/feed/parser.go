package feed

import (
	"encoding/xml"
	"fmt"
)

// xmlFeed mirrors the legacy feed document. The root element must be
// <transactions>; a document without any <transaction> children is a valid
// empty feed.
type xmlFeed struct {
	XMLName xml.Name    `xml:"transactions"`
	Records []xmlRecord `xml:"transaction"`
}

type xmlRecord struct {
	TxnID       string `xml:"txn_id"`
	Description string `xml:"description"`
	Amount      string `xml:"amount"`
	Currency    string `xml:"currency"`
	Date        string `xml:"date"`
}

// Parse decodes a legacy XML feed document into raw per-record field sets.
// A malformed document or a wrong root element fails the whole batch; no
// per-record validation happens here (see Sanitize).
func Parse(xmlText string) ([]RawRecord, error) {
	var doc xmlFeed
	if err := xml.Unmarshal([]byte(xmlText), &doc); err != nil {
		return nil, fmt.Errorf("Parse: decoding feed document: %w", err)
	}

	records := make([]RawRecord, 0, len(doc.Records))
	for _, r := range doc.Records {
		records = append(records, RawRecord{
			TxnID:       r.TxnID,
			Description: r.Description,
			Amount:      r.Amount,
			Currency:    r.Currency,
			Date:        r.Date,
		})
	}

	return records, nil
}
