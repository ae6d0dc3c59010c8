// Package present renders search reports for a terminal.
package present

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"job-aggregator/internal/domain"
)

const (
	Negotiable = "面议"
	// Hidden marks a salary whose digits the site withheld from us.
	Hidden = "面议*"
)

var (
	unitOnly = regexp.MustCompile(`^(-\s*)?[Kk万元]`)
	digit    = regexp.MustCompile(`\d`)
)

// FormatSalary turns placeholder salaries into 面议 and salaries stripped of
// their numbers ("-K", "万/月") into 面议*.
func FormatSalary(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Negotiable
	}
	if unitOnly.MatchString(s) || !digit.MatchString(s) {
		return Hidden
	}
	return s
}

func noun(kind domain.Kind) string {
	if kind == domain.KindIntern {
		return "实习"
	}
	return "职位"
}

// PrintQuery prints the search header shown before a run starts.
func PrintQuery(w io.Writer, kind domain.Kind, q domain.Query) {
	fmt.Fprintf(w, "\n正在搜索%s: %s\n", noun(kind), q.Position)
	if q.City != "" {
		fmt.Fprintf(w, "城市: %s\n", q.City)
	}
	if q.Experience != "" {
		fmt.Fprintf(w, "经验: %s\n", q.Experience)
	}
	if q.Education != "" {
		fmt.Fprintf(w, "学历: %s\n", q.Education)
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
}

// PrintReport prints totals, per-source counts and at most maxDisplay
// listings. maxDisplay <= 0 prints every listing.
func PrintReport(w io.Writer, r domain.Report, elapsed time.Duration, maxDisplay int) {
	n := noun(r.Kind)
	fmt.Fprintf(w, "\n%s！共找到 %d 个%s\n", r.Message, r.Statistics.Total, n)
	fmt.Fprintf(w, "总耗时: %.2f 秒\n", elapsed.Seconds())
	for _, sc := range r.Statistics.BySource {
		fmt.Fprintf(w, "  - %s: %d 个\n", sc.Source, sc.Count)
	}
	if r.Statistics.FilteredCount > 0 {
		fmt.Fprintf(w, "  (按城市过滤掉 %d 个)\n", r.Statistics.FilteredCount)
	}

	if len(r.Listings) == 0 {
		fmt.Fprintf(w, "\n未找到符合条件的%s，可能是反爬机制限制，请稍后再试\n", n)
		return
	}

	shown := r.Listings
	if maxDisplay > 0 && len(shown) > maxDisplay {
		shown = shown[:maxDisplay]
	}

	fmt.Fprintf(w, "\n%s\n%s列表:\n%s\n", strings.Repeat("=", 60), n, strings.Repeat("=", 60))
	for i, l := range shown {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, l.Title)
		fmt.Fprintf(w, "   公司: %s\n", l.Company)
		fmt.Fprintf(w, "   薪资: %s\n", FormatSalary(l.Salary))
		fmt.Fprintf(w, "   城市: %s\n", l.City)
		if r.Kind == domain.KindIntern {
			if l.Duration != "" {
				fmt.Fprintf(w, "   时长: %s\n", l.Duration)
			}
			if l.DaysPerWeek != "" {
				fmt.Fprintf(w, "   天数: %s\n", l.DaysPerWeek)
			}
		} else {
			fmt.Fprintf(w, "   经验: %s | 学历: %s\n", l.Experience, l.Education)
		}
		fmt.Fprintf(w, "   来源: %s\n", l.Source)
		if l.URL != "" {
			fmt.Fprintf(w, "   链接: %s\n", l.URL)
		}
	}

	if rest := len(r.Listings) - len(shown); rest > 0 {
		fmt.Fprintf(w, "\n... 还有 %d 个%s未显示\n", rest, n)
	}
}
