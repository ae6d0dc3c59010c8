// Package job51 searches 前程无忧 (51job).
package job51

import (
	"context"
	"fmt"
	"log"
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
	Name       = "前程无忧"
	DefaultAPI = "https://we.51job.com/api/job/search-pc"
	siteURL    = "https://we.51job.com"
)

var cityCodes = codes.Table{
	{Key: "全国", Code: ""},
	{Key: "北京", Code: "010000"},
	{Key: "上海", Code: "020000"},
	{Key: "广州", Code: "030200"},
	{Key: "深圳", Code: "040000"},
	{Key: "杭州", Code: "080200"},
	{Key: "成都", Code: "090200"},
	{Key: "南京", Code: "070200"},
	{Key: "武汉", Code: "180200"},
	{Key: "西安", Code: "200200"},
	{Key: "苏州", Code: "070300"},
	{Key: "天津", Code: "050000"},
	{Key: "重庆", Code: "060000"},
}

var expCodes = codes.Table{
	{Key: "不限", Code: ""},
	{Key: "在校生/应届生", Code: "01"},
	{Key: "1年以下", Code: "02"},
	{Key: "1-3年", Code: "03"},
	{Key: "3-5年", Code: "04"},
	{Key: "5-10年", Code: "05"},
	{Key: "10年以上", Code: "06"},
}

var eduCodes = codes.Table{
	{Key: "不限", Code: ""},
	{Key: "初中及以下", Code: "01"},
	{Key: "高中/中专/中技", Code: "02"},
	{Key: "大专", Code: "03"},
	{Key: "本科", Code: "04"},
	{Key: "硕士", Code: "05"},
	{Key: "博士", Code: "06"},
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

type searchResponse struct {
	Status     providers.Text `json:"status"`
	Message    string         `json:"message"`
	ResultBody struct {
		Job struct {
			Items []item `json:"items"`
		} `json:"job"`
	} `json:"resultbody"`
}

type item struct {
	JobName             string           `json:"jobName"`
	CompanyName         string           `json:"companyName"`
	ProvideSalaryString string           `json:"provideSalaryString"`
	JobAreaString       string           `json:"jobAreaString"`
	WorkYearString      string           `json:"workYearString"`
	DegreeString        string           `json:"degreeString"`
	CompanyTypeString   string           `json:"companyTypeString"`
	CompanySizeString   string           `json:"companySizeString"`
	JobTags             providers.Labels `json:"jobTags"`
	CompanyTags         providers.Labels `json:"companyTags"`
	JobHref             string           `json:"jobHref"`
	IssueDateString     string           `json:"issueDateString"`
	JobDescribe         string           `json:"jobDescribe"`
}

func (a *Adapter) form(q domain.Query) url.Values {
	v := url.Values{}
	v.Set("api_key", "51job")
	v.Set("timestamp", strconv.FormatInt(a.now().Unix(), 10))
	v.Set("keyword", q.Position)
	v.Set("searchType", "2")
	v.Set("jobArea", cityCodes.Lookup(q.City, ""))
	v.Set("workYear", expCodes.Lookup(q.Experience, ""))
	v.Set("degree", eduCodes.Lookup(q.Education, ""))
	v.Set("sortType", "0")
	v.Set("pageNum", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	v.Set("source", "1")
	v.Set("pageCode", "sou|sou|sou")
	return v
}

func (a *Adapter) Fetch(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout())
	defer cancel()

	body := a.form(q).Encode()
	referer := fmt.Sprintf("%s/pc/search?keyword=%s&searchType=2&sortType=0", siteURL, url.QueryEscape(q.Position))

	var resp searchResponse
	err := httpx.DoJSON(ctx, a.HTTP, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpx.SetBrowserHeaders(req, a.opts.UA(), referer)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Origin", siteURL)
		return req, nil
	}, &resp, a.Retry)
	if err != nil {
		return nil, domain.NewAdapterError(Name, err)
	}
	if resp.Status != "1" {
		return nil, domain.NewAdapterError(Name, fmt.Errorf("api status=%s %s", resp.Status, resp.Message))
	}

	items := resp.ResultBody.Job.Items
	if len(items) == 0 {
		log.Printf("[job51] no results for %q", q.Position)
		return []domain.Listing{}, nil
	}

	out := make([]domain.Listing, 0, len(items))
	for _, it := range items {
		out = append(out, domain.Listing{
			Title:       strings.TrimSpace(it.JobName),
			Company:     strings.TrimSpace(it.CompanyName),
			Salary:      strings.TrimSpace(it.ProvideSalaryString),
			City:        strings.TrimSpace(it.JobAreaString),
			Experience:  it.WorkYearString,
			Education:   it.DegreeString,
			CompanyType: it.CompanyTypeString,
			CompanySize: it.CompanySizeString,
			Skills:      providers.Clean(it.JobTags),
			Benefits:    providers.Clean(it.CompanyTags),
			URL:         strings.TrimSpace(it.JobHref),
			Source:      Name,
			PublishTime: it.IssueDateString,
			Description: strings.TrimSpace(it.JobDescribe),
		})
	}
	return out, nil
}
