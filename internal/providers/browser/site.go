package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"job-aggregator/internal/domain"
)

// Selectors lists CSS selectors per field; the first one yielding text wins.
type Selectors struct {
	Cards   []string
	Title   []string
	Link    []string // defaults to Title
	Salary  []string
	Company []string
	City    []string
	Tags    string // every match becomes a tag
}

// Site describes one client-rendered listing site.
type Site struct {
	ID        string
	Name      string
	BaseURL   string
	SearchURL func(q domain.Query) string
	Sel       Selectors
	// CleanSalary rewrites site specific salary placeholders.
	CleanSalary func(string) string
}

// rawCard is what extractJS returns for each card.
type rawCard struct {
	Title   string   `json:"title"`
	Link    string   `json:"link"`
	Salary  string   `json:"salary"`
	Company string   `json:"company"`
	City    string   `json:"city"`
	Tags    []string `json:"tags"`
}

// extractJS builds the script that collects up to limit cards. Title-like
// fields read the title attribute first: shixiseng renders visible text with
// an obfuscated font.
func extractJS(s Site, limit int) (string, error) {
	link := s.Sel.Link
	if len(link) == 0 {
		link = s.Sel.Title
	}
	cfg := map[string]any{
		"cards":   s.Sel.Cards,
		"title":   s.Sel.Title,
		"link":    link,
		"salary":  s.Sel.Salary,
		"company": s.Sel.Company,
		"city":    s.Sel.City,
		"tags":    s.Sel.Tags,
		"limit":   limit,
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode selectors of %s: %w", s.ID, err)
	}
	return fmt.Sprintf(`(function(cfg){
  function pick(card, sels, attr){
    for (var i = 0; i < (sels||[]).length; i++) {
      var el = card.querySelector(sels[i]);
      if (!el) continue;
      var v = attr ? (el.getAttribute(attr) || "") : "";
      if (!v) v = (el.innerText || el.textContent || "");
      v = v.trim();
      if (v) return v;
    }
    return "";
  }
  function href(card, sels){
    for (var i = 0; i < (sels||[]).length; i++) {
      var el = card.querySelector(sels[i]);
      if (el && el.getAttribute("href")) return el.getAttribute("href");
    }
    return "";
  }
  var cards = [];
  for (var i = 0; i < cfg.cards.length; i++) {
    cards = document.querySelectorAll(cfg.cards[i]);
    if (cards.length) break;
  }
  var out = [];
  var n = cfg.limit > 0 ? Math.min(cfg.limit, cards.length) : cards.length;
  for (var j = 0; j < n; j++) {
    var c = cards[j];
    var tags = [];
    if (cfg.tags) {
      c.querySelectorAll(cfg.tags).forEach(function(t){
        var s = (t.innerText || t.textContent || "").trim();
        if (s) tags.push(s);
      });
    }
    out.push({
      title: pick(c, cfg.title, "title"),
      link: href(c, cfg.link),
      salary: pick(c, cfg.salary),
      company: pick(c, cfg.company, "title"),
      city: pick(c, cfg.city),
      tags: tags
    });
  }
  return out;
})(%s)`, b), nil
}

func (s Site) toListing(c rawCard) (domain.Listing, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return domain.Listing{}, false
	}
	salary := strings.TrimSpace(c.Salary)
	if s.CleanSalary != nil {
		salary = s.CleanSalary(salary)
	}
	l := domain.Listing{
		Title:    title,
		Company:  strings.TrimSpace(c.Company),
		Salary:   salary,
		City:     strings.TrimSpace(c.City),
		URL:      absolutize(s.BaseURL, c.Link),
		Source:   s.Name,
		Skills:   []string{},
		Benefits: []string{},
	}
	classifyTags(&l, c.Tags)
	return l, true
}

var (
	educationWords = []string{"本科", "硕士", "大专", "博士", "学历"}
	knownCities    = []string{"北京", "上海", "广州", "深圳", "杭州", "成都", "南京", "武汉", "西安", "苏州", "天津", "重庆"}
)

// classifyTags sorts card tags into days per week, duration, education and
// city; anything else is kept as a skill.
func classifyTags(l *domain.Listing, tags []string) {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		switch {
		case t == "":
		case strings.Contains(t, "天") && (strings.Contains(t, "周") || strings.Contains(t, "/")):
			if l.DaysPerWeek == "" {
				l.DaysPerWeek = t
			}
		case strings.Contains(t, "月"):
			if l.Duration == "" {
				l.Duration = t
			}
		case containsAny(t, educationWords):
			if l.Education == "" {
				l.Education = t
			}
		case l.City == "" && containsAny(t, knownCities):
			l.City = t
		default:
			l.Skills = append(l.Skills, t)
		}
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func absolutize(base, href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return base + href
	}
	return base + "/" + href
}
