package address

import (
	"context"
	"regexp"
	"strings"
)

// poBoxRe matches post-office-box designations across the languages this
// engine commonly sees: English, Spanish, Portuguese, French, German, and
// the bare "box NN" shorthand.
var poBoxRe = regexp.MustCompile(`(?i)\b(?:p\.?\s*o\.?\s*box|post\s+office\s+box|apartado(?:\s+postal)?|caixa\s+postal|casilla(?:\s+de\s+correo)?|bo[iî]te\s+postale|postfach|box)\s*(?:#|n[oº°]\.?\s*)?\d+`)

var spaceRe = regexp.MustCompile(`\s+`)

// IsPOBox reports whether either address line carries a box designation.
func IsPOBox(line1, line2 string) bool {
	return poBoxRe.MatchString(line1) || poBoxRe.MatchString(line2)
}

// cleanField trims and collapses internal whitespace. Field casing is left
// alone except for the country code, which is always upper-cased ISO-2.
func cleanField(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

func clean(in Input) Input {
	return Input{
		Line1:      cleanField(in.Line1),
		Line2:      cleanField(in.Line2),
		City:       cleanField(in.City),
		Admin1:     cleanField(in.Admin1),
		Admin2:     cleanField(in.Admin2),
		PostalCode: cleanField(in.PostalCode),
		Country:    strings.ToUpper(cleanField(in.Country)),
	}
}

// Normalize canonicalizes the address. Box addresses skip the structural
// re-parse so box identifiers survive intact; everything else goes through
// the parser, falling back to the cleaned input if parsing fails. The
// second return reports whether the parser failed.
func Normalize(ctx context.Context, parser Parser, in Input) (Input, bool) {
	cleaned := clean(in)

	if IsPOBox(cleaned.Line1, cleaned.Line2) {
		return cleaned, false
	}
	if parser == nil {
		return cleaned, false
	}

	components, err := parser.Parse(ctx, cleaned.OneLine())
	if err != nil || len(components) == 0 {
		return cleaned, err != nil
	}
	return reconstitute(cleaned, components), false
}

// reconstitute maps parser components back onto the structured form. Fields
// the parser did not produce keep their cleaned originals.
func reconstitute(base Input, components map[string]string) Input {
	out := base

	if road, ok := components["road"]; ok {
		line1 := road
		if houseNumber, ok := components["house_number"]; ok {
			line1 = houseNumber + " " + road
		}
		out.Line1 = line1
	}
	if unit, ok := components["unit"]; ok {
		out.Line2 = unit
	}
	if city, ok := components["city"]; ok {
		out.City = city
	}
	if admin1, ok := components["state"]; ok {
		out.Admin1 = admin1
	}
	if admin2, ok := components["state_district"]; ok {
		out.Admin2 = admin2
	}
	if postcode, ok := components["postcode"]; ok {
		out.PostalCode = postcode
	}
	if country, ok := components["country_code"]; ok {
		out.Country = country
	}
	return clean(out)
}
