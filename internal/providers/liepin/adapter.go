// Package liepin searches 猎聘 through its search-front JSON API.
package liepin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"job-aggregator/internal/domain"
	"job-aggregator/internal/httpx"
	"job-aggregator/internal/providers"
	"job-aggregator/internal/providers/codes"
)

const (
	Name       = "猎聘"
	DefaultAPI = "https://api-c.liepin.com/api/com.liepin.searchfront4c.pc-search-job"
	siteURL    = "https://www.liepin.com"
)

// CityCodes is shared with the internship browser adapter.
var CityCodes = codes.Table{
	{Key: "全国", Code: ""},
	{Key: "北京", Code: "010"},
	{Key: "上海", Code: "020"},
	{Key: "广州", Code: "050020"},
	{Key: "深圳", Code: "050090"},
	{Key: "杭州", Code: "070020"},
	{Key: "成都", Code: "280020"},
	{Key: "南京", Code: "060020"},
	{Key: "武汉", Code: "170020"},
	{Key: "西安", Code: "270020"},
	{Key: "苏州", Code: "060080"},
	{Key: "天津", Code: "030"},
	{Key: "重庆", Code: "040"},
}

var expCodes = codes.Table{
	{Key: "不限", Code: ""},
	{Key: "1年以内", Code: "0$1"},
	{Key: "1-3年", Code: "1$3"},
	{Key: "3-5年", Code: "3$5"},
	{Key: "5-10年", Code: "5$10"},
	{Key: "10年以上", Code: "10$99"},
}

var eduCodes = codes.Table{
	{Key: "不限", Code: ""},
	{Key: "大专", Code: "030"},
	{Key: "本科", Code: "040"},
	{Key: "硕士", Code: "050"},
	{Key: "博士", Code: "060"},
}

type Adapter struct {
	APIURL string
	HTTP   *http.Client
	Retry  httpx.RetryConfig
	opts   providers.HTTPOptions
}

func New(opts providers.HTTPOptions) *Adapter {
	return &Adapter{
		APIURL: DefaultAPI,
		HTTP:   opts.Client(),
		Retry:  opts.RetryConfig(),
		opts:   opts,
	}
}

func (a *Adapter) Name() string { return Name }

type conditionForm struct {
	City         string `json:"city"`
	DQ           string `json:"dq"`
	PubTime      string `json:"pubTime"`
	CurrentPage  int    `json:"currentPage"`
	PageSize     int    `json:"pageSize"`
	Key          string `json:"key"`
	SuggestTag   string `json:"suggestTag"`
	WorkYearCode string `json:"workYearCode"`
	EduLevel     string `json:"eduLevel"`
	Salary       string `json:"salary"`
	SortFlag     string `json:"sortFlag"`
}

type searchRequest struct {
	Data struct {
		MainSearchPcConditionForm conditionForm `json:"mainSearchPcConditionForm"`
		PassThroughForm           struct {
			Scene string `json:"scene"`
		} `json:"passThroughForm"`
	} `json:"data"`
}

type searchResponse struct {
	Flag int    `json:"flag"`
	Msg  string `json:"msg"`
	Data struct {
		Data struct {
			JobCardList []card `json:"jobCardList"`
		} `json:"data"`
	} `json:"data"`
}

type card struct {
	Job struct {
		Title            string          `json:"title"`
		Salary           string          `json:"salary"`
		DQ               string          `json:"dq"`
		RequireWorkYears string          `json:"requireWorkYears"`
		RequireEduLevel  string          `json:"requireEduLevel"`
		Labels           json.RawMessage `json:"labels"`
		JobID            providers.Text  `json:"jobId"`
		Link             string          `json:"link"`
		RefreshTime      providers.Text  `json:"refreshTime"`
	} `json:"job"`
	Comp struct {
		CompName     string `json:"compName"`
		CompIndustry string `json:"compIndustry"`
		CompScale    string `json:"compScale"`
	} `json:"comp"`
}

func buildRequest(q domain.Query) searchRequest {
	city := CityCodes.Lookup(q.City, "")
	var r searchRequest
	r.Data.MainSearchPcConditionForm = conditionForm{
		City:         city,
		DQ:           city,
		CurrentPage:  q.Page - 1,
		PageSize:     q.PageSize,
		Key:          q.Position,
		WorkYearCode: expCodes.Lookup(q.Experience, ""),
		EduLevel:     eduCodes.Lookup(q.Education, ""),
		SortFlag:     "0",
	}
	r.Data.PassThroughForm.Scene = "conditionSearch"
	return r
}

func (a *Adapter) Fetch(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout())
	defer cancel()

	payload, err := json.Marshal(buildRequest(q))
	if err != nil {
		return nil, domain.NewAdapterError(Name, err)
	}
	referer := fmt.Sprintf("%s/zhaopin/?key=%s", siteURL, url.QueryEscape(q.Position))

	var resp searchResponse
	err = httpx.DoJSON(ctx, a.HTTP, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpx.SetBrowserHeaders(req, a.opts.UA(), referer)
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
		req.Header.Set("Origin", siteURL)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		return req, nil
	}, &resp, a.Retry)
	if err != nil {
		return nil, domain.NewAdapterError(Name, err)
	}

	if resp.Flag != 1 {
		return nil, domain.NewAdapterError(Name, fmt.Errorf("api flag=%d msg=%s", resp.Flag, resp.Msg))
	}

	cards := resp.Data.Data.JobCardList
	if len(cards) == 0 {
		log.Printf("[liepin] no results for %q", q.Position)
		return []domain.Listing{}, nil
	}

	out := make([]domain.Listing, 0, len(cards))
	for _, c := range cards {
		out = append(out, toListing(c))
	}
	return out, nil
}

func toListing(c card) domain.Listing {
	skills, benefits := splitLabels(c.Job.Labels)
	return domain.Listing{
		Title:       strings.TrimSpace(c.Job.Title),
		Company:     strings.TrimSpace(c.Comp.CompName),
		Salary:      strings.TrimSpace(c.Job.Salary),
		City:        strings.TrimSpace(c.Job.DQ),
		Experience:  c.Job.RequireWorkYears,
		Education:   c.Job.RequireEduLevel,
		CompanyType: c.Comp.CompIndustry,
		CompanySize: c.Comp.CompScale,
		Skills:      skills,
		Benefits:    benefits,
		URL:         jobURL(c),
		Source:      Name,
		PublishTime: string(c.Job.RefreshTime),
	}
}

func jobURL(c card) string {
	if l := strings.TrimSpace(c.Job.Link); l != "" {
		return l
	}
	if c.Job.JobID != "" {
		return fmt.Sprintf("%s/job/%s.shtml", siteURL, c.Job.JobID)
	}
	return ""
}

// splitLabels handles both {"skillLabels":[...],"compLabels":[...]} and a
// flat list, which is treated as skills.
func splitLabels(raw json.RawMessage) (skills, benefits []string) {
	var grouped struct {
		SkillLabels providers.Labels `json:"skillLabels"`
		CompLabels  providers.Labels `json:"compLabels"`
	}
	if err := json.Unmarshal(raw, &grouped); err == nil {
		return providers.Clean(grouped.SkillLabels), providers.Clean(grouped.CompLabels)
	}
	var flat providers.Labels
	if err := json.Unmarshal(raw, &flat); err == nil {
		return providers.Clean(flat), []string{}
	}
	return []string{}, []string{}
}
