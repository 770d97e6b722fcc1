package jobcan

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"jobcan-cli/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Group is an organizational unit the account can stamp against.
type Group struct {
	ID   string
	Name string
}

const (
	authenticityTokenSelector = "input[name=authenticity_token]"
	actionTokenSelector       = "input[name=token]"
	groupOptionSelector       = "#adit_group_id > option"

	// shown next to the user's name while clocked in on the marker-based
	// deployments
	workingMarker = "(勤務中)"
)

var (
	currentStatusRegex  = regexp.MustCompile(`var current_status = "(.*?)";`)
	defaultGroupIdRegex = regexp.MustCompile(`var defaultAditGroupId = (.*?);`)
)

// ParseDocument parses an html body for the selector based extractors.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ElementExtractError{
			Message: fmt.Sprintf("failed to parse html: %v", err),
		}
	}
	return doc, nil
}

func inputValue(doc *goquery.Document, selector, name string) (string, error) {
	input := doc.Find(selector).First()
	if input.Length() == 0 {
		return "", &ElementExtractError{
			Message: fmt.Sprintf("failed to find %s", name),
		}
	}
	value, ok := input.Attr("value")
	if !ok {
		return "", &ElementExtractError{
			Message: fmt.Sprintf("failed to get value of %s", name),
		}
	}
	return value, nil
}

// AuthenticityToken returns the anti-forgery token of the login form.
func AuthenticityToken(doc *goquery.Document) (string, error) {
	return inputValue(doc, authenticityTokenSelector, "authenticity_token")
}

// ActionToken returns the per-stamp token of the employee page.
func ActionToken(doc *goquery.Document) (string, error) {
	return inputValue(doc, actionTokenSelector, "token")
}

// Groups returns the options of the group select in document order. A
// select without options (or no select at all) yields no groups.
func Groups(doc *goquery.Document) ([]Group, error) {
	options := doc.Find(groupOptionSelector)
	groups := make([]Group, 0, options.Length())
	for i, node := range options.Nodes {
		id, ok := options.Eq(i).Attr("value")
		if !ok {
			return nil, &ElementExtractError{
				Message: fmt.Sprintf("failed to get value of group id (option %d)", i),
			}
		}
		if !htmlutil.HasText(node) {
			return nil, &ElementExtractError{
				Message: fmt.Sprintf("failed to get value of group name (group %s)", id),
			}
		}
		groups = append(groups, Group{
			ID:   id,
			Name: htmlutil.NormalizeText(htmlutil.GetText(node)),
		})
	}
	return groups, nil
}

// WorkingStatusFromScript reads `var current_status = "<token>";`.
func WorkingStatusFromScript(text string) (WorkingStatus, error) {
	groups := currentStatusRegex.FindStringSubmatch(text)
	if len(groups) < 2 {
		return NotWorking, &UnexpectedResponseError{
			Message: "failed to get working status: current_status not found",
		}
	}
	return ParseStatusToken(groups[1])
}

// WorkingStatusFromMarker reports Working if the page carries the localized
// "currently working" fragment. This encoding cannot express Resting.
func WorkingStatusFromMarker(text string) WorkingStatus {
	if strings.Contains(text, workingMarker) {
		return Working
	}
	return NotWorking
}

// DefaultGroupID reads `var defaultAditGroupId = <id>;`, the id may be quoted.
func DefaultGroupID(text string) (string, error) {
	groups := defaultGroupIdRegex.FindStringSubmatch(text)
	if len(groups) < 2 {
		return "", &ElementExtractError{
			Message: "failed to get default group id: defaultAditGroupId not found",
		}
	}
	id := strings.Trim(strings.TrimSpace(groups[1]), `"'`)
	if id == "" {
		return "", &ElementExtractError{
			Message: "failed to get default group id: defaultAditGroupId is empty",
		}
	}
	return id, nil
}

// StatusEncoding selects how a deployment renders the working status.
type StatusEncoding int

const (
	// StatusInlineScript reads the `current_status` script variable.
	StatusInlineScript StatusEncoding = iota
	// StatusLocalizedMarker looks for the "(勤務中)" fragment.
	StatusLocalizedMarker
)

func (e StatusEncoding) String() string {
	switch e {
	case StatusInlineScript:
		return "script"
	case StatusLocalizedMarker:
		return "marker"
	}
	return fmt.Sprintf("StatusEncoding(%d)", int(e))
}

// ParseStatusEncoding accepts "script" and "marker". The empty string
// selects StatusInlineScript.
func ParseStatusEncoding(name string) (StatusEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "script":
		return StatusInlineScript, nil
	case "marker":
		return StatusLocalizedMarker, nil
	}
	return 0, fmt.Errorf("unknown status encoding %q (expected script or marker)", name)
}

// Decode extracts the working status from a raw page body.
func (e StatusEncoding) Decode(text string) (WorkingStatus, error) {
	switch e {
	case StatusInlineScript:
		return WorkingStatusFromScript(text)
	case StatusLocalizedMarker:
		return WorkingStatusFromMarker(text), nil
	}
	return NotWorking, fmt.Errorf("unknown status encoding %d", int(e))
}
