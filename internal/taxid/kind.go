package taxid

import "strings"

// Kind is the closed set of supported tax-identifier jurisdictions. Input
// type strings are parsed case-insensitively; anything outside the set maps
// to KindUnsupported and never reaches a checksum or the network.
type Kind string

const (
	KindCPF         Kind = "cpf"    // Brazil, natural persons
	KindCNPJ        Kind = "cnpj"   // Brazil, legal entities
	KindCUIT        Kind = "cuit"   // Argentina
	KindRUT         Kind = "rut"    // Chile
	KindNIF         Kind = "nif"    // Spain
	KindEIN         Kind = "ein"    // United States
	KindEUVAT       Kind = "eu_vat" // EU VAT via the government service
	KindUnsupported Kind = "unsupported"
)

// ParseKind maps a declared type string onto the enum.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpf":
		return KindCPF
	case "cnpj":
		return KindCNPJ
	case "cuit":
		return KindCUIT
	case "rut":
		return KindRUT
	case "nif", "dni":
		return KindNIF
	case "ein":
		return KindEIN
	case "eu_vat", "vat", "euvat":
		return KindEUVAT
	default:
		return KindUnsupported
	}
}
