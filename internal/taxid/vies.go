package taxid

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	dErrors "vigil/pkg/domain-errors"
	"vigil/pkg/platform/sentinel"
)

// VATChecker confirms an EU VAT number against the member-state registry.
// An ErrUnavailable-wrapped error means the registry could not answer, which
// callers degrade into a reason code rather than a failure.
type VATChecker interface {
	CheckVAT(ctx context.Context, countryCode, number string) (bool, error)
}

// VIESClient talks to the European Commission's VIES checkVat SOAP service.
type VIESClient struct {
	url    string
	client *http.Client
}

func NewVIESClient(url string, timeout time.Duration) *VIESClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VIESClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

const viesEnvelope = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:urn="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
  <soapenv:Body>
    <urn:checkVat>
      <urn:countryCode>%s</urn:countryCode>
      <urn:vatNumber>%s</urn:vatNumber>
    </urn:checkVat>
  </soapenv:Body>
</soapenv:Envelope>`

type viesResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		CheckVatResponse struct {
			Valid bool `xml:"valid"`
		} `xml:"checkVatResponse"`
		Fault *struct {
			FaultString string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

func (c *VIESClient) CheckVAT(ctx context.Context, countryCode, number string) (bool, error) {
	payload := fmt.Sprintf(viesEnvelope, xmlEscape(countryCode), xmlEscape(number))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader([]byte(payload)))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	res, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("vies request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("vies returned %d: %w", res.StatusCode, sentinel.ErrUnavailable)
	}

	var parsed viesResponse
	if err := xml.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("vies response decode: %w: %w", sentinel.ErrUnavailable, err)
	}
	if parsed.Body.Fault != nil {
		// INVALID_INPUT faults mean the number is malformed, which maps to
		// an ordinary invalid result upstream. Everything else is treated
		// as the service being unable to answer.
		return false, fmt.Errorf("vies fault %q: %w", parsed.Body.Fault.FaultString, sentinel.ErrUnavailable)
	}
	return parsed.Body.CheckVatResponse.Valid, nil
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// downChecker is the injected outage simulation. Wiring it in place of the
// real client exercises the degraded path without touching the network.
type downChecker struct{}

func (downChecker) CheckVAT(context.Context, string, string) (bool, error) {
	return false, dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable, "vat service marked down")
}

// DownChecker returns a VATChecker that always reports an outage.
func DownChecker() VATChecker {
	return downChecker{}
}
