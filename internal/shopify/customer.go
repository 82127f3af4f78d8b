package shopify

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMissingBirthData is returned when an order carries no usable birth date.
var ErrMissingBirthData = errors.New("missing birth data")

// CustomerInfo is the birth and contact data extracted from an order.
type CustomerInfo struct {
	FullName      string
	Email         string // recipient of the report
	PrimaryEmail  string // buyer
	GiftEmail     string
	IsGift        bool
	Message       string
	BirthDate     string // as entered, dd/mm/yyyy
	BirthPlace    string
	BirthProvince string
	Day           int
	Month         int
	Year          int
	Hour          int
	Min           int
}

// BirthTime formats the birth time as HH:MM.
func (c CustomerInfo) BirthTime() string {
	return twoDigits(c.Hour) + ":" + twoDigits(c.Min)
}

func twoDigits(n int) string {
	if n >= 0 && n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ExtractCustomer reads birth data from the order's note attributes, or from
// the first line item's properties when the attributes carry none. The
// fallback email is used when the order has no address at all.
func ExtractCustomer(o *Order, fallbackEmail string) (CustomerInfo, error) {
	if info, ok := fromNoteAttributes(o); ok {
		return info, nil
	}

	info, ok := fromLineItem(o, fallbackEmail)
	if !ok {
		return CustomerInfo{}, ErrMissingBirthData
	}
	return info, nil
}

func fromNoteAttributes(o *Order) (CustomerInfo, bool) {
	if len(o.NoteAttributes) == 0 {
		return CustomerInfo{}, false
	}
	attr := func(names ...string) string {
		for _, name := range names {
			for _, p := range o.NoteAttributes {
				if p.Name == name && p.Value != "" {
					return p.Value.String()
				}
			}
		}
		return ""
	}

	info := CustomerInfo{
		FullName:      firstNonEmpty(attr("nombre", "full_name"), o.Customer.FullName()),
		Email:         firstNonEmpty(attr("email"), customerEmail(o), o.Email),
		Message:       attr("mensaje", "message"),
		BirthDate:     attr("fecha_nacimiento", "birth_date"),
		BirthPlace:    attr("lugar_nacimiento", "birth_place"),
		BirthProvince: attr("provincia_nacimiento", "birth_province"),
		Day:           atoi(attr("birth_day"), 0),
		Month:         atoi(attr("birth_month"), 0),
		Year:          atoi(attr("birth_year"), 0),
		Hour:          atoi(attr("birth_hour"), 12),
		Min:           atoi(attr("birth_minute"), 0),
	}
	if info.Day == 0 && info.Month == 0 && info.Year == 0 {
		info.Day, info.Month, info.Year = parseDate(info.BirthDate)
	}
	info.PrimaryEmail = info.Email
	info.IsGift = info.Message != ""

	return info, hasBirthDate(info)
}

func fromLineItem(o *Order, fallbackEmail string) (CustomerInfo, bool) {
	if len(o.LineItems) == 0 || len(o.LineItems[0].Properties) == 0 {
		return CustomerInfo{}, false
	}
	props := o.LineItems[0].Properties

	// a name matches itself, its hidden "_" form, or itself without the first "_"
	prop := func(names ...string) string {
		for _, name := range names {
			alt := strings.Replace(name, "_", "", 1)
			for _, p := range props {
				if p.Value == "" {
					continue
				}
				if p.Name == name || p.Name == "_"+name || p.Name == alt {
					return p.Value.String()
				}
			}
		}
		return ""
	}

	birthDate := prop("Fecha de nacimiento", "fecha_nacimiento")
	day, month, year := parseDate(birthDate)
	hour, min := parseTime(prop("Hora de nacimiento", "hora_nacimiento"))

	forWhom := prop("Eso es para")
	lower := strings.ToLower(forWhom)
	isGift := strings.Contains(lower, "regalar") || strings.Contains(lower, "regalo")

	propEmail := prop("Email", "email", "Email para regalar", "email_regalo", "Email de regalo")
	orderEmail := orderEmail(o)

	info := CustomerInfo{
		FullName:      firstNonEmpty(prop("Nombre", "nombre"), o.Customer.FullName()),
		IsGift:        isGift,
		Message:       firstNonEmpty(prop("Mensaje", "mensaje", "message"), forWhom),
		BirthDate:     birthDate,
		BirthPlace:    prop("Lugar de nacimiento", "lugar_nacimiento"),
		BirthProvince: prop("Provincia de nacimiento", "provincia_nacimiento"),
		Day:           day,
		Month:         month,
		Year:          year,
		Hour:          hour,
		Min:           min,
	}

	switch {
	case isGift && propEmail != "":
		// the property holds the recipient, the checkout holds the buyer
		info.Email = propEmail
		info.GiftEmail = propEmail
		info.PrimaryEmail = firstNonEmpty(orderEmail, propEmail)
	case isGift:
		info.Email = firstNonEmpty(orderEmail, fallbackEmail)
		info.GiftEmail = info.Email
		info.PrimaryEmail = info.Email
	default:
		info.Email = firstNonEmpty(orderEmail, propEmail, fallbackEmail)
		info.PrimaryEmail = info.Email
	}

	return info, hasBirthDate(info)
}

func customerEmail(o *Order) string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Email
}

// orderEmail returns the first address found on the order.
func orderEmail(o *Order) string {
	candidates := []string{customerEmail(o), o.Email, o.ContactEmail}
	if o.BillingAddress != nil {
		candidates = append(candidates, o.BillingAddress.Email)
	}
	if o.ShippingAddress != nil {
		candidates = append(candidates, o.ShippingAddress.Email)
	}
	if o.Customer != nil && o.Customer.DefaultAddress != nil {
		candidates = append(candidates, o.Customer.DefaultAddress.Email)
	}
	return firstNonEmpty(candidates...)
}

func hasBirthDate(info CustomerInfo) bool {
	return info.Day != 0 && info.Month != 0 && info.Year != 0
}

// parseDate splits "13/07/1997". Anything else yields zeros.
func parseDate(s string) (day, month, year int) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return 0, 0, 0
	}
	return atoi(parts[0], 0), atoi(parts[1], 0), atoi(parts[2], 0)
}

// parseTime splits "HH:MM", defaulting to noon.
func parseTime(s string) (hour, min int) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 12, 0
	}
	return atoi(parts[0], 12), atoi(parts[1], 0)
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
