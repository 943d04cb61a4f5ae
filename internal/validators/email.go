package validators

import (
	"context"
	"net"
	"net/mail"
	"strings"
	"time"
)

// IsEmail valida só a sintaxe; usado nos cadastros, onde o domínio pode
// ser interno do cliente.
func IsEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

const dnsTimeout = 3 * time.Second

// IsEmailDomainValid consulta MX e, na falta, A/AAAA do domínio.
// Usado no registro de usuários.
func IsEmailDomainValid(email string) bool {
	if !IsEmail(email) {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]

	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()

	var r net.Resolver
	if mx, err := r.LookupMX(ctx, domain); err == nil && len(mx) > 0 {
		return true
	}
	hosts, err := r.LookupHost(ctx, domain)
	return err == nil && len(hosts) > 0
}
