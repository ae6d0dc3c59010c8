// Package zhilian searches 智联招聘 through the fe-api search endpoint.
package zhilian

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"job-aggregator/internal/domain"
	"job-aggregator/internal/httpx"
	"job-aggregator/internal/providers"
	"job-aggregator/internal/providers/codes"
)

const (
	Name       = "智联招聘"
	DefaultAPI = "https://fe-api.zhaopin.com/c/i/sou"
	searchSite = "https://sou.zhaopin.com"

	anyCode = "-1"
)

var cityCodes = codes.Table{
	{Key: "全国", Code: ""},
	{Key: "北京", Code: "530"},
	{Key: "上海", Code: "538"},
	{Key: "广州", Code: "763"},
	{Key: "深圳", Code: "765"},
	{Key: "杭州", Code: "653"},
	{Key: "成都", Code: "801"},
	{Key: "南京", Code: "635"},
	{Key: "武汉", Code: "736"},
	{Key: "西安", Code: "854"},
	{Key: "苏州", Code: "639"},
	{Key: "天津", Code: "531"},
	{Key: "重庆", Code: "551"},
}

var expCodes = codes.Table{
	{Key: "不限", Code: anyCode},
	{Key: "不限经验", Code: anyCode},
	{Key: "1年以下", Code: "1"},
	{Key: "1-3年", Code: "2"},
	{Key: "3-5年", Code: "3"},
	{Key: "5-10年", Code: "4"},
	{Key: "10年以上", Code: "5"},
}

var eduCodes = codes.Table{
	{Key: "不限", Code: anyCode},
	{Key: "大专", Code: "5"},
	{Key: "本科", Code: "6"},
	{Key: "硕士", Code: "7"},
	{Key: "博士", Code: "8"},
}

type Adapter struct {
	APIURL string
	HTTP   *http.Client
	Retry  httpx.RetryConfig
	opts   providers.HTTPOptions
	now    func() time.Time
}

func New(opts providers.HTTPOptions) *Adapter {
	return &Adapter{
		APIURL: DefaultAPI,
		HTTP:   opts.Client(),
		Retry:  opts.RetryConfig(),
		opts:   opts,
		now:    time.Now,
	}
}

func (a *Adapter) Name() string { return Name }

type named struct {
	Name string `json:"name"`
}

type searchResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"message"`
	Data struct {
		List []position `json:"list"`
	} `json:"data"`
}

type position struct {
	Name    string `json:"name"`
	Company struct {
		Name string `json:"name"`
		Type named  `json:"type"`
		Size named  `json:"size"`
	} `json:"company"`
	Salary string `json:"salary"`
	City   struct {
		Display string `json:"display"`
	} `json:"city"`
	WorkingExp  named            `json:"workingExp"`
	EduLevel    named            `json:"eduLevel"`
	SkillLabel  providers.Labels `json:"skillLabel"`
	Welfare     providers.Labels `json:"welfare"`
	PositionURL string           `json:"positionURL"`
	UpdateDate  providers.Text   `json:"updateDate"`
}

func (a *Adapter) searchURL(q domain.Query, cityCode string) (string, error) {
	u, err := url.Parse(a.APIURL)
	if err != nil {
		return "", err
	}
	last, _ := json.Marshal(map[string]int{"p": q.Page})

	v := url.Values{}
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	v.Set("cityId", cityCode)
	v.Set("workExperience", expCodes.Lookup(q.Experience, anyCode))
	v.Set("education", eduCodes.Lookup(q.Education, anyCode))
	v.Set("companyType", anyCode)
	v.Set("employmentType", anyCode)
	v.Set("jobWelfareTag", anyCode)
	v.Set("kw", q.Position)
	v.Set("kt", "3")
	v.Set("lastUrlQuery", string(last))
	v.Set("at", strconv.FormatInt(a.now().UnixMilli(), 10))
	v.Set("rt", strconv.Itoa(100000000+rand.Intn(900000000)))
	u.RawQuery = v.Encode()
	return u.String(), nil
}

func (a *Adapter) Fetch(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout())
	defer cancel()

	cityCode := cityCodes.Lookup(q.City, "")
	target, err := a.searchURL(q, cityCode)
	if err != nil {
		return nil, domain.NewAdapterError(Name, fmt.Errorf("invalid api url: %w", err))
	}
	referer := fmt.Sprintf("%s/?jl=%s&kw=%s", searchSite, cityCode, url.QueryEscape(q.Position))

	var resp searchResponse
	err = httpx.DoJSON(ctx, a.HTTP, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		httpx.SetBrowserHeaders(req, a.opts.UA(), referer)
		req.Header.Set("Origin", searchSite)
		return req, nil
	}, &resp, a.Retry)
	if err != nil {
		return nil, domain.NewAdapterError(Name, err)
	}
	if resp.Code != http.StatusOK {
		return nil, domain.NewAdapterError(Name, fmt.Errorf("api code=%d %s", resp.Code, resp.Msg))
	}
	if len(resp.Data.List) == 0 {
		log.Printf("[zhilian] no results for %q", q.Position)
		return []domain.Listing{}, nil
	}

	out := make([]domain.Listing, 0, len(resp.Data.List))
	for _, p := range resp.Data.List {
		out = append(out, domain.Listing{
			Title:       strings.TrimSpace(p.Name),
			Company:     strings.TrimSpace(p.Company.Name),
			Salary:      strings.TrimSpace(p.Salary),
			City:        strings.TrimSpace(p.City.Display),
			Experience:  p.WorkingExp.Name,
			Education:   p.EduLevel.Name,
			CompanyType: p.Company.Type.Name,
			CompanySize: p.Company.Size.Name,
			Skills:      providers.Clean(p.SkillLabel),
			Benefits:    providers.Clean(p.Welfare),
			URL:         strings.TrimSpace(p.PositionURL),
			Source:      Name,
			PublishTime: string(p.UpdateDate),
		})
	}
	return out, nil
}
