package farmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/fishfarm/internal/config"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
)

// maxPages bounds how many "next" links a list call follows.
const maxPages = 50

// Client exposes the fish-farming backend operations used by the service.
type Client interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)

	ListPonds(ctx context.Context) ([]models.Pond, error)
	ListSpecies(ctx context.Context) ([]models.Species, error)
	ListCustomerStocks(ctx context.Context) ([]models.CustomerStock, error)

	CreateStocking(ctx context.Context, req models.StockingRequest) (*models.Stocking, error)
	UpdateStocking(ctx context.Context, id int, req models.StockingRequest) (*models.Stocking, error)
	DeleteStocking(ctx context.Context, id int) error

	CreateFishSampling(ctx context.Context, req models.FishSamplingRequest) (*models.FishSampling, error)
	ListFishSamplings(ctx context.Context) ([]models.FishSampling, error)

	CreateHarvest(ctx context.Context, req models.HarvestRequest) (*models.Harvest, error)
	ListHarvests(ctx context.Context) ([]models.Harvest, error)

	CreateMortality(ctx context.Context, req models.MortalityRequest) (*models.Mortality, error)

	CreateFeed(ctx context.Context, req models.FeedRequest) (*models.Feed, error)
	ListFeeds(ctx context.Context) ([]models.Feed, error)

	CalculateAssets(ctx context.Context, pondID int) (*models.AssetCalculationResult, error)
	GetFcrAnalysis(ctx context.Context, q models.FcrQuery) (*models.FcrAnalysis, error)
	Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error)
}

// Observer is notified after every backend call with the operation name and
// the HTTP status (0 when the request never completed).
type Observer func(op string, status int)

// Option customises an APIClient.
type Option func(*APIClient)

// WithObserver installs a call observer, typically a metrics recorder.
func WithObserver(o Observer) Option {
	return func(c *APIClient) { c.observe = o }
}

// APIClient is a resty-backed implementation of Client. It is safe for
// concurrent use once the token has been set.
type APIClient struct {
	httpClient *resty.Client
	authURL    string
	observe    Observer
}

// NewClient builds a backend client from configuration. A configured static
// token is installed immediately.
func NewClient(cfg config.FarmAPIConfig, opts ...Option) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	c := &APIClient{
		httpClient: restyClient,
		authURL:    strings.TrimSuffix(cfg.AuthURL, "/"),
		observe:    func(string, int) {},
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.Token != "" {
		c.SetToken(cfg.Token)
	}
	return c
}

// SetToken installs the API token sent as "Authorization: Token <token>".
func (c *APIClient) SetToken(token string) {
	c.httpClient.SetAuthScheme("Token").SetAuthToken(token)
}

// Login exchanges credentials for a token and installs it on the client.
func (c *APIClient) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	result := new(models.LoginResponse)
	err := c.do(ctx, "login", http.MethodPost, c.authURL+"/login/",
		models.LoginRequest{Username: username, Password: password}, result)
	if err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login: empty token in response")
	}
	c.SetToken(result.Token)
	return result, nil
}

func (c *APIClient) ListPonds(ctx context.Context) ([]models.Pond, error) {
	return list[models.Pond](ctx, c, "list_ponds", "/ponds/", nil)
}

func (c *APIClient) ListSpecies(ctx context.Context) ([]models.Species, error) {
	return list[models.Species](ctx, c, "list_species", "/species/", nil)
}

func (c *APIClient) ListCustomerStocks(ctx context.Context) ([]models.CustomerStock, error) {
	return list[models.CustomerStock](ctx, c, "list_customer_stocks", "/customer-stocks/", nil)
}

func (c *APIClient) CreateStocking(ctx context.Context, req models.StockingRequest) (*models.Stocking, error) {
	result := new(models.Stocking)
	if err := c.do(ctx, "create_stocking", http.MethodPost, "/stocking/", req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) UpdateStocking(ctx context.Context, id int, req models.StockingRequest) (*models.Stocking, error) {
	result := new(models.Stocking)
	if err := c.do(ctx, "update_stocking", http.MethodPut, fmt.Sprintf("/stocking/%d/", id), req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) DeleteStocking(ctx context.Context, id int) error {
	return c.do(ctx, "delete_stocking", http.MethodDelete, fmt.Sprintf("/stocking/%d/", id), nil, nil)
}

func (c *APIClient) CreateFishSampling(ctx context.Context, req models.FishSamplingRequest) (*models.FishSampling, error) {
	result := new(models.FishSampling)
	if err := c.do(ctx, "create_fish_sampling", http.MethodPost, "/fish-sampling/", req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) ListFishSamplings(ctx context.Context) ([]models.FishSampling, error) {
	return list[models.FishSampling](ctx, c, "list_fish_samplings", "/fish-sampling/", nil)
}

func (c *APIClient) CreateHarvest(ctx context.Context, req models.HarvestRequest) (*models.Harvest, error) {
	result := new(models.Harvest)
	if err := c.do(ctx, "create_harvest", http.MethodPost, "/harvests/", req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) ListHarvests(ctx context.Context) ([]models.Harvest, error) {
	return list[models.Harvest](ctx, c, "list_harvests", "/harvests/", nil)
}

func (c *APIClient) CreateMortality(ctx context.Context, req models.MortalityRequest) (*models.Mortality, error) {
	result := new(models.Mortality)
	if err := c.do(ctx, "create_mortality", http.MethodPost, "/mortality/", req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) CreateFeed(ctx context.Context, req models.FeedRequest) (*models.Feed, error) {
	result := new(models.Feed)
	if err := c.do(ctx, "create_feed", http.MethodPost, "/feeds/", req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) ListFeeds(ctx context.Context) ([]models.Feed, error) {
	return list[models.Feed](ctx, c, "list_feeds", "/feeds/", nil)
}

// CalculateAssets asks the backend to value a pond.
func (c *APIClient) CalculateAssets(ctx context.Context, pondID int) (*models.AssetCalculationResult, error) {
	result := new(models.AssetCalculationResult)
	body := map[string]int{"pond_id": pondID}
	if err := c.do(ctx, "calculate_assets", http.MethodPost, "/asset-calculator/calculate/", body, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetFcrAnalysis fetches the backend's FCR breakdown.
func (c *APIClient) GetFcrAnalysis(ctx context.Context, q models.FcrQuery) (*models.FcrAnalysis, error) {
	params := url.Values{}
	if q.Pond != 0 {
		params.Set("pond", strconv.Itoa(q.Pond))
	}
	if q.Species != 0 {
		params.Set("species", strconv.Itoa(q.Species))
	}
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}

	result := new(models.FcrAnalysis)
	resp, err := c.httpClient.R().SetContext(ctx).SetQueryParamsFromValues(params).Get("/fish-sampling/fcr_analysis/")
	if err := c.check("fcr_analysis", resp, err); err != nil {
		return nil, err
	}
	if err := decodeBody("fcr_analysis", resp, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Transfer posts a chart-of-accounts fund transfer.
func (c *APIClient) Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error) {
	result := new(models.TransferResult)
	if err := c.do(ctx, "transfer", http.MethodPost, "/accounts/transfer/", req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) do(ctx context.Context, op, method, path string, body, result any) error {
	req := c.httpClient.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err := c.check(op, resp, err); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return decodeBody(op, resp, result)
}

// decodeBody unmarshals a successful response whatever Content-Type the
// backend labelled it with. An empty body leaves result untouched.
func decodeBody(op string, resp *resty.Response, result any) error {
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *APIClient) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.observe(op, 0)
		return fmt.Errorf("%s: %w", op, err)
	}

	c.observe(op, resp.StatusCode())
	if resp.IsError() {
		return fmt.Errorf("%s: %w", op, newAPIError(resp.StatusCode(), resp.Body()))
	}
	return nil
}

// list fetches a collection. The backend answers with a bare array, a paginated
// {"results": [...], "next": url} envelope, or a {"data": [...]} envelope.
func list[T any](ctx context.Context, c *APIClient, op, path string, params url.Values) ([]T, error) {
	var out []T
	next := path

	for page := 0; next != "" && page < maxPages; page++ {
		req := c.httpClient.R().SetContext(ctx)
		if page == 0 && params != nil {
			req.SetQueryParamsFromValues(params)
		}

		resp, err := req.Get(next)
		if err := c.check(op, resp, err); err != nil {
			return nil, err
		}

		items, nextURL, err := decodeList[T](resp.Body())
		if err != nil {
			return nil, fmt.Errorf("%s: decode page %d: %w", op, page+1, err)
		}
		out = append(out, items...)
		next = nextURL
	}

	if next != "" {
		return nil, fmt.Errorf("%s: %w after %d pages", op, ErrTooManyPages, maxPages)
	}
	return out, nil
}

func decodeList[T any](body []byte) ([]T, string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, "", nil
	}

	if body[0] == '[' {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, "", err
		}
		return items, "", nil
	}

	var envelope struct {
		Results []T     `json:"results"`
		Data    []T     `json:"data"`
		Next    *string `json:"next"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, "", err
	}

	items := envelope.Results
	if items == nil {
		items = envelope.Data
	}
	next := ""
	if envelope.Next != nil {
		next = *envelope.Next
	}
	return items, next, nil
}
