// Package boss searches Boss直聘 through its web JSON endpoint.
package boss

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"job-aggregator/internal/domain"
	"job-aggregator/internal/httpx"
	"job-aggregator/internal/providers"
	"job-aggregator/internal/providers/codes"
)

const (
	Name       = "Boss直聘"
	DefaultAPI = "https://www.zhipin.com/wapi/zpgeek/search/joblist.json"
	siteURL    = "https://www.zhipin.com"

	nationwide = "100010000"
)

var cityCodes = codes.Table{
	{Key: "全国", Code: nationwide},
	{Key: "北京", Code: "101010100"},
	{Key: "上海", Code: "101020100"},
	{Key: "广州", Code: "101280100"},
	{Key: "深圳", Code: "101280600"},
	{Key: "杭州", Code: "101210100"},
	{Key: "成都", Code: "101270100"},
	{Key: "南京", Code: "101190100"},
	{Key: "武汉", Code: "101200100"},
	{Key: "西安", Code: "101110100"},
	{Key: "苏州", Code: "101190400"},
	{Key: "天津", Code: "101030100"},
	{Key: "重庆", Code: "101040100"},
	{Key: "长沙", Code: "101250100"},
	{Key: "郑州", Code: "101180100"},
	{Key: "东莞", Code: "101281600"},
	{Key: "青岛", Code: "101120200"},
	{Key: "合肥", Code: "101220100"},
	{Key: "厦门", Code: "101230200"},
	{Key: "大连", Code: "101070200"},
}

var expCodes = codes.Table{
	{Key: "不限", Code: "0"},
	{Key: "应届生", Code: "108"},
	{Key: "1年以内", Code: "101"},
	{Key: "1-3年", Code: "102"},
	{Key: "3-5年", Code: "103"},
	{Key: "5-10年", Code: "104"},
	{Key: "10年以上", Code: "105"},
}

var eduCodes = codes.Table{
	{Key: "不限", Code: "0"},
	{Key: "初中及以下", Code: "209"},
	{Key: "中专/中技", Code: "208"},
	{Key: "高中", Code: "206"},
	{Key: "大专", Code: "202"},
	{Key: "本科", Code: "203"},
	{Key: "硕士", Code: "204"},
	{Key: "博士", Code: "205"},
}

// CityCode maps a city name to Boss's code, nationwide when unknown.
func CityCode(city string) string { return cityCodes.Lookup(city, nationwide) }

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

type searchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	ZPData  struct {
		JobList []job `json:"jobList"`
	} `json:"zpData"`
}

type job struct {
	JobName        string           `json:"jobName"`
	BrandName      string           `json:"brandName"`
	SalaryDesc     string           `json:"salaryDesc"`
	CityName       string           `json:"cityName"`
	AreaDistrict   string           `json:"areaDistrict"`
	JobExperience  string           `json:"jobExperience"`
	JobDegree      string           `json:"jobDegree"`
	BrandIndustry  string           `json:"brandIndustry"`
	BrandScaleName string           `json:"brandScaleName"`
	Skills         providers.Labels `json:"skills"`
	WelfareList    providers.Labels `json:"welfareList"`
	EncryptJobID   string           `json:"encryptJobId"`
	LastModifyTime providers.Text   `json:"lastModifyTime"`
}

func (a *Adapter) Fetch(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout())
	defer cancel()

	cityCode := CityCode(q.City)

	u, err := url.Parse(a.APIURL)
	if err != nil {
		return nil, domain.NewAdapterError(Name, fmt.Errorf("invalid api url: %w", err))
	}
	v := url.Values{}
	v.Set("scene", "1")
	v.Set("query", q.Position)
	v.Set("city", cityCode)
	v.Set("experience", expCodes.Lookup(q.Experience, "0"))
	v.Set("degree", eduCodes.Lookup(q.Education, "0"))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	u.RawQuery = v.Encode()

	referer := fmt.Sprintf("%s/web/geek/job?query=%s&city=%s", siteURL, url.QueryEscape(q.Position), cityCode)

	var resp searchResponse
	err = httpx.DoJSON(ctx, a.HTTP, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		httpx.SetBrowserHeaders(req, a.opts.UA(), referer)
		return req, nil
	}, &resp, a.Retry)
	if err != nil {
		return nil, domain.NewAdapterError(Name, err)
	}

	// any non-zero code is the anti-bot wall ("访问行为异常")
	if resp.Code != 0 {
		return nil, domain.NewAdapterError(Name, fmt.Errorf("%w: code=%d %s", domain.ErrVerification, resp.Code, resp.Message))
	}

	if len(resp.ZPData.JobList) == 0 {
		log.Printf("[boss] no results for %q", q.Position)
		return []domain.Listing{}, nil
	}

	out := make([]domain.Listing, 0, len(resp.ZPData.JobList))
	for _, j := range resp.ZPData.JobList {
		out = append(out, toListing(j))
	}
	return out, nil
}

func toListing(j job) domain.Listing {
	city := strings.TrimSpace(j.CityName)
	if d := strings.TrimSpace(j.AreaDistrict); d != "" && city != "" {
		city = city + "·" + d
	}
	var jobURL string
	if j.EncryptJobID != "" {
		jobURL = fmt.Sprintf("%s/job_detail/%s.html", siteURL, j.EncryptJobID)
	}
	return domain.Listing{
		Title:       strings.TrimSpace(j.JobName),
		Company:     strings.TrimSpace(j.BrandName),
		Salary:      strings.TrimSpace(j.SalaryDesc),
		City:        city,
		Experience:  j.JobExperience,
		Education:   j.JobDegree,
		CompanyType: j.BrandIndustry,
		CompanySize: j.BrandScaleName,
		Skills:      providers.Clean(j.Skills),
		Benefits:    providers.Clean(j.WelfareList),
		URL:         jobURL,
		Source:      Name,
		PublishTime: string(j.LastModifyTime),
	}
}
