// Package notion mirrors user accounts into a Notion database for read-only viewing.
package notion

import (
	"strings"

	"irportal/internal/entity/db"

	"github.com/jomei/notionapi"
)

// Database column names.
const (
	PropName        = "Name"
	PropEmail       = "Email"
	PropFirstName   = "First Name"
	PropLastName    = "Last Name"
	PropRole        = "Role"
	PropUserID      = "User ID"
	PropVerified    = "Verified"
	PropStackUserID = "Stack User ID"
)

// UserRecord is the mirrored view of a user.
type UserRecord struct {
	PageID      string
	UserID      uint
	Email       string
	FirstName   string
	LastName    string
	Role        string
	IsVerified  bool
	StackUserID string
}

// RecordFromUser maps a stored user to its mirrored record.
func RecordFromUser(user *db.User) UserRecord {
	if user == nil {
		return UserRecord{}
	}
	rec := UserRecord{
		UserID:     user.ID,
		Email:      strings.ToLower(user.Email),
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	}
	if user.StackUserID != nil {
		rec.StackUserID = *user.StackUserID
	}
	return rec
}

// DisplayName is the page title.
func (r UserRecord) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
	if name == "" {
		return r.Email
	}
	return name
}

// SameContent reports whether two records carry the same mirrored fields.
func (r UserRecord) SameContent(other UserRecord) bool {
	r.PageID, other.PageID = "", ""
	return r == other
}

// ToProperties converts the record to Notion page properties. Email is a
// rich_text column so the mirror can filter on it.
func (r UserRecord) ToProperties() notionapi.Properties {
	props := notionapi.Properties{
		PropName:        &notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: []notionapi.RichText{textValue(r.DisplayName())}},
		PropEmail:       &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richTextValue(r.Email)},
		PropFirstName:   &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richTextValue(r.FirstName)},
		PropLastName:    &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richTextValue(r.LastName)},
		PropUserID:      &notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: float64(r.UserID)},
		PropVerified:    &notionapi.CheckboxProperty{Type: notionapi.PropertyTypeCheckbox, Checkbox: r.IsVerified},
		PropStackUserID: &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richTextValue(r.StackUserID)},
	}
	if r.Role != "" {
		props[PropRole] = &notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: r.Role}}
	}
	return props
}

// FromPage converts a Notion page back into a record. Missing properties stay zero.
func FromPage(page notionapi.Page) UserRecord {
	rec := UserRecord{PageID: string(page.ID)}
	rec.Email = strings.ToLower(textOf(page.Properties[PropEmail]))
	rec.FirstName = textOf(page.Properties[PropFirstName])
	rec.LastName = textOf(page.Properties[PropLastName])
	rec.StackUserID = textOf(page.Properties[PropStackUserID])
	if p, ok := page.Properties[PropRole].(*notionapi.SelectProperty); ok {
		rec.Role = p.Select.Name
	}
	if p, ok := page.Properties[PropUserID].(*notionapi.NumberProperty); ok && p.Number > 0 {
		rec.UserID = uint(p.Number)
	}
	if p, ok := page.Properties[PropVerified].(*notionapi.CheckboxProperty); ok {
		rec.IsVerified = p.Checkbox
	}
	return rec
}

// textOf reads text-like properties, including email columns created by hand.
func textOf(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.RichTextProperty:
		return plainText(p.RichText)
	case *notionapi.TitleProperty:
		return plainText(p.Title)
	case *notionapi.EmailProperty:
		return p.Email
	default:
		return ""
	}
}

func textValue(content string) notionapi.RichText {
	return notionapi.RichText{Type: "text", Text: &notionapi.Text{Content: content}}
}

func richTextValue(content string) []notionapi.RichText {
	if content == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{textValue(content)}
}

func plainText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, part := range parts {
		switch {
		case part.PlainText != "":
			b.WriteString(part.PlainText)
		case part.Text != nil:
			b.WriteString(part.Text.Content)
		}
	}
	return b.String()
}
