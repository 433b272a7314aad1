package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"TripWatch/internal/cache"
	"TripWatch/pkg/logger"
	"TripWatch/pkg/metrics"
)

// Client 行程规划服务的 HTTP 客户端，请求 OTP 风格的 /plan 接口。
// 非 2xx 响应、响应体缺少 plan 字段都按瞬时失败处理，由调用方决定重试。
type Client struct {
	baseURL    string
	httpClient *http.Client
	planCache  *cache.PlanCache
}

func NewClient(baseURL string, timeout time.Duration, planCache *cache.PlanCache) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		planCache: planCache,
	}
}

// Plan 发起规划查询，params 为查询参数，返回候选方案集合。
// 任何网络错误、非 2xx 状态码或无法解析的响应都返回 error。
func (c *Client) Plan(ctx context.Context, params map[string]string) (*PlanResponse, error) {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	query := values.Encode()

	if body, err := c.planCache.GetPlan(ctx, query); err != nil {
		logger.Logger.Warn("Failed to read plan cache", zap.Error(err))
	} else if body != nil {
		resp, err := decodePlan(body)
		if err == nil {
			return resp, nil
		}
		logger.Logger.Warn("Discarding malformed cached plan", zap.Error(err))
	}

	start := time.Now()
	resp, err := c.doPlan(ctx, query)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordPlannerRequest(ctx, "error", elapsed)
		return nil, err
	}
	metrics.RecordPlannerRequest(ctx, "ok", elapsed)
	return resp, nil
}

func (c *Client) doPlan(ctx context.Context, query string) (*PlanResponse, error) {
	reqURL := c.baseURL + "/plan?" + query

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build plan request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plan request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("planner returned status %d", httpResp.StatusCode)
	}

	resp, err := decodePlan(body)
	if err != nil {
		return nil, err
	}

	if err := c.planCache.SetPlan(ctx, query, body); err != nil {
		logger.Logger.Warn("Failed to write plan cache", zap.Error(err))
	}

	return resp, nil
}

func decodePlan(body []byte) (*PlanResponse, error) {
	var resp PlanResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode plan response: %w", err)
	}
	if resp.Plan == nil {
		if resp.Error != nil {
			return nil, fmt.Errorf("planner error %d: %s", resp.Error.ID, resp.Error.Message)
		}
		return nil, fmt.Errorf("plan response missing plan body")
	}
	return &resp, nil
}
