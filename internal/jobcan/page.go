package jobcan

import (
	"github.com/PuerkitoBio/goquery"
)

// EmployeePage is one fetch of the employee landing page. It is a plain value:
// it never refetches and never outlives the caller that asked for it.
type EmployeePage struct {
	URL string

	body     string
	doc      *goquery.Document
	encoding StatusEncoding
}

// NewEmployeePage wraps an already fetched landing page body.
func NewEmployeePage(url string, body []byte, encoding StatusEncoding) (EmployeePage, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return EmployeePage{}, err
	}
	return EmployeePage{
		URL:      url,
		body:     string(body),
		doc:      doc,
		encoding: encoding,
	}, nil
}

func (p EmployeePage) ActionToken() (string, error) {
	return ActionToken(p.doc)
}

func (p EmployeePage) WorkingStatus() (WorkingStatus, error) {
	return p.encoding.Decode(p.body)
}

func (p EmployeePage) Groups() ([]Group, error) {
	return Groups(p.doc)
}

// DefaultGroupID reads the raw body, the id lives in an inline script.
func (p EmployeePage) DefaultGroupID() (string, error) {
	return DefaultGroupID(p.body)
}
