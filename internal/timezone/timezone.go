package timezone

import "time"

const DefaultTimezone = "America/Sao_Paulo"

// DateLayout é o formato de data trafegado na API.
const DateLayout = "2006-01-02"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		// imagem sem tzdata: Brasília sem horário de verão
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

func Now() time.Time {
	return time.Now().In(Location(DefaultTimezone))
}

// Today é a meia-noite local de hoje.
func Today() time.Time {
	return StartOfDay(Now())
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate lê "YYYY-MM-DD" no fuso padrão.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, Location(DefaultTimezone))
}
