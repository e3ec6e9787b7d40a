package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/kryptogain/backend/src/logger"
	"golang.org/x/net/publicsuffix"
)

// coinIDs maps ticker symbols to CoinGecko coin ids for the assets that do
// not follow the lowercase-symbol convention. Anything not listed falls back
// to the lowercased symbol, which works for many smaller coins.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"LINK":  "chainlink",
	"XLM":   "stellar",
	"ATOM":  "cosmos",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"USDT":  "tether",
	"USDC":  "usd-coin",
}

type priceServiceImpl struct {
	httpClient http.Client
	baseURL    string
}

// NewPriceService creates a CoinGecko-backed price service. The client keeps
// a cookie jar so rate-limit cookies set by the API survive across requests.
func NewPriceService(baseURL string) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &priceServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: 20 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetSpotPrices returns current USD prices keyed by upper-case symbol.
// Symbols the API does not know are simply absent from the result.
func (s *priceServiceImpl) GetSpotPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal)
	if len(symbols) == 0 {
		return result, nil
	}

	symbolByID := make(map[string]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		upper := strings.ToUpper(strings.TrimSpace(symbol))
		if upper == "" {
			continue
		}
		id, ok := coinIDs[upper]
		if !ok {
			id = strings.ToLower(upper)
		}
		if _, seen := symbolByID[id]; !seen {
			symbolByID[id] = upper
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return result, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	requestURL := fmt.Sprintf("%s/simple/price?%s", s.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call price API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("price API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	// Prices are decoded as json.Number so they reach decimal form without
	// passing through float64.
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var payload map[string]map[string]json.Number
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode price API response: %w", err)
	}

	for id, quotes := range payload {
		symbol, ok := symbolByID[id]
		if !ok {
			continue
		}
		usd, ok := quotes["usd"]
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(usd.String())
		if err != nil {
			logger.L.Warn("Unparseable price from API", "id", id, "raw", usd.String())
			continue
		}
		result[symbol] = price
	}

	logger.L.Debug("Spot price lookup complete", "requested", len(ids), "resolved", len(result))
	return result, nil
}
