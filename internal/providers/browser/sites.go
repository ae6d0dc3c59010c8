package browser

import (
	"fmt"
	"net/url"
	"strings"

	"job-aggregator/internal/domain"
	"job-aggregator/internal/providers/boss"
	"job-aggregator/internal/providers/codes"
	"job-aggregator/internal/providers/liepin"
)

var shixisengCities = codes.Table{
	{Key: "北京", Code: "110100"}, {Key: "上海", Code: "310100"}, {Key: "广州", Code: "440100"}, {Key: "深圳", Code: "440300"},
	{Key: "杭州", Code: "330100"}, {Key: "成都", Code: "510100"}, {Key: "南京", Code: "320100"}, {Key: "武汉", Code: "420100"},
	{Key: "西安", Code: "610100"}, {Key: "苏州", Code: "320500"}, {Key: "天津", Code: "120100"}, {Key: "重庆", Code: "500100"},
	{Key: "郑州", Code: "410100"}, {Key: "长沙", Code: "430100"}, {Key: "东莞", Code: "441900"}, {Key: "青岛", Code: "370200"},
	{Key: "济南", Code: "370100"}, {Key: "厦门", Code: "350200"}, {Key: "福州", Code: "350100"}, {Key: "合肥", Code: "340100"},
}

// Shixiseng is 实习僧. Card text uses an obfuscated font, so titles come from
// the title attribute.
var Shixiseng = Site{
	ID:      "shixiseng",
	Name:    "实习僧",
	BaseURL: "https://www.shixiseng.com",
	SearchURL: func(q domain.Query) string {
		v := fmt.Sprintf("https://www.shixiseng.com/interns?k=%s", url.QueryEscape(q.Position))
		if c := shixisengCities.Lookup(q.City, ""); c != "" {
			v += "&c=" + c
		}
		return v + fmt.Sprintf("&p=%d", q.Page)
	},
	Sel: Selectors{
		Cards:   []string{".intern-wrap .intern-item", ".intern-item", "[class*='intern-item']", ".job-item"},
		Title:   []string{"a.title", ".intern-detail__job a.title", ".title"},
		Salary:  []string{".day.font", ".day", "span.day"},
		Company: []string{".intern-detail__company a.title", ".intern-detail__company .title", ".company-name"},
		City:    []string{".city"},
		Tags:    ".tip .font",
	},
	CleanSalary: func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(s, "-/天", "面议"))
	},
}

// Ciwei is 刺猬实习; its city filter takes the plain city name.
var Ciwei = Site{
	ID:      "ciwei",
	Name:    "刺猬实习",
	BaseURL: "https://www.ciweishixi.com",
	SearchURL: func(q domain.Query) string {
		v := fmt.Sprintf("https://www.ciweishixi.com/search?key=%s", url.QueryEscape(q.Position))
		if q.City != "" {
			v += "&city=" + url.QueryEscape(q.City)
		}
		return v + fmt.Sprintf("&page=%d", q.Page)
	},
	Sel: Selectors{
		Cards:   []string{".job-list .job-item", ".job-item", "[class*='job-item']", ".internship-item"},
		Title:   []string{".job-title a", ".job-title", ".title a", ".title"},
		Salary:  []string{".salary", ".money", ".pay"},
		Company: []string{".company-name", ".company a", ".company"},
		Tags:    ".info span, .tags span, .demand span",
	},
}

// BossIntern is the internship stage of Boss直聘's web search.
var BossIntern = Site{
	ID:      "boss_intern",
	Name:    "Boss直聘(实习)",
	BaseURL: "https://www.zhipin.com",
	SearchURL: func(q domain.Query) string {
		return fmt.Sprintf("https://www.zhipin.com/web/geek/job?query=%s&city=%s&stage=303&page=%d",
			url.QueryEscape(q.Position), boss.CityCode(q.City), q.Page)
	},
	Sel: Selectors{
		Cards:   []string{".job-card-wrap", ".job-card-box", "li.job-card-box"},
		Title:   []string{"a.job-name", ".job-name", ".job-title a"},
		Salary:  []string{".salary", ".job-salary", "span.salary"},
		Company: []string{".company-name a", ".company-name", ".boss-name"},
		City:    []string{".company-location", "span.company-location"},
		Tags:    ".tag-list li",
	},
}

// LiepinIntern is 猎聘's web search restricted to internships. Pages are
// zero based on this endpoint.
var LiepinIntern = Site{
	ID:      "liepin_intern",
	Name:    "猎聘(实习)",
	BaseURL: "https://www.liepin.com",
	SearchURL: func(q domain.Query) string {
		v := fmt.Sprintf("https://www.liepin.com/zhaopin/?key=%s", url.QueryEscape(q.Position))
		if c := liepin.CityCodes.Lookup(q.City, ""); c != "" {
			v += "&dq=" + c
		}
		page := q.Page - 1
		if page < 0 {
			page = 0
		}
		return v + fmt.Sprintf("&jobKind=2&currentPage=%d", page)
	},
	Sel: Selectors{
		Cards:   []string{".job-list-item", "[class*='job-list-item']", "[class*='job-card']"},
		Title:   []string{".job-title-box .ellipsis-1", ".job-title", "h3"},
		Link:    []string{"a[href*='/job/']", "a"},
		Salary:  []string{".job-salary", "[class*='salary']"},
		Company: []string{".company-name a", ".company-name"},
		City:    []string{".job-dq-box .ellipsis-1", ".job-dq"},
	},
}

// Sites returns every browser backed site keyed by ID.
func Sites() map[string]Site {
	out := make(map[string]Site)
	for _, s := range []Site{Shixiseng, Ciwei, BossIntern, LiepinIntern} {
		out[s.ID] = s
	}
	return out
}
