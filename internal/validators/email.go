package validators

import (
	"net"
	"net/mail"
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{6,20}$`)

func IsEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func IsPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// IsEmailDomainValid checks that the domain resolves (MX first, then A/AAAA).
func IsEmailDomainValid(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]

	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		return true
	}

	if ips, err := net.LookupIP(domain); err == nil && len(ips) > 0 {
		return true
	}

	return false
}

type Contact struct {
	Name  string
	Email string
	Phone string
}

// ValidateContact checks the customer fields of a booking. checkDomain
// additionally resolves the email domain.
func ValidateContact(in Contact, checkDomain bool) Result {
	r := Result{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		r.Add("customer_name", "Name is required.")
	case len(name) > 100:
		r.Add("customer_name", "Name is too long.")
	}

	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		r.Add("customer_email", "Email is required.")
	case !IsEmail(email):
		r.Add("customer_email", "Email is not valid.")
	case checkDomain && !IsEmailDomainValid(email):
		r.Add("customer_email", "Email domain does not exist.")
	}

	if phone := strings.TrimSpace(in.Phone); phone != "" && !IsPhone(phone) {
		r.Add("customer_phone", "Phone is not valid.")
	}

	return r
}
