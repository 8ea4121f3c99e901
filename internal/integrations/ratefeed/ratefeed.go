package ratefeed

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/harshahs/digital-bank/internal/config"
)

// bankMargin is added on top of the central-bank key rate to form the
// suggested annual loan rate, in percent.
const bankMargin = 2.0

// Client fetches the central-bank key rate used as the suggested annual
// rate when an admin approves a loan application.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a rate feed client against the configured endpoint.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.RateFeedURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// keyRateEnvelope builds the SOAP body asking for the key rate over the
// last thirty days; the feed returns one KR element per published day.
func keyRateEnvelope(now time.Time) string {
	from := now.AddDate(0, 0, -30).Format("2006-01-02")
	to := now.Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<KeyRate xmlns="http://web.cbr.ru/">
					<fromDate>%s</fromDate>
					<ToDate>%s</ToDate>
				</KeyRate>
			</soap12:Body>
		</soap12:Envelope>`, from, to)
}

func (c *Client) post(envelope string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, c.url, strings.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to build rate feed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate feed response: %w", err)
	}
	c.log.Debugf("Rate feed response: %d bytes", len(body))
	return body, nil
}

// latestRate pulls the first KR element's Rate value out of the diffgram.
func latestRate(raw []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return 0, fmt.Errorf("failed to parse rate feed XML: %w", err)
	}

	entries := doc.FindElements("//diffgram/KeyRate/KR")
	if len(entries) == 0 {
		return 0, fmt.Errorf("rate feed response carries no key rate entries")
	}
	rateElement := entries[0].FindElement("./Rate")
	if rateElement == nil {
		return 0, fmt.Errorf("key rate entry is missing its Rate element")
	}

	rate, err := strconv.ParseFloat(strings.TrimSpace(rateElement.Text()), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable key rate %q: %w", rateElement.Text(), err)
	}
	return rate, nil
}

// SuggestedRate retrieves the current key rate and adds the bank margin.
// The result is a percentage, the admin's starting point for an approval.
func (c *Client) SuggestedRate() (float64, error) {
	body, err := c.post(keyRateEnvelope(time.Now()))
	if err != nil {
		return 0, err
	}
	rate, err := latestRate(body)
	if err != nil {
		return 0, err
	}

	suggested := rate + bankMargin
	c.log.Infof("Key rate %.2f%%, suggesting %.2f%% with margin", rate, suggested)
	return suggested, nil
}
