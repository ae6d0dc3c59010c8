package present

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"job-aggregator/internal/domain"
)

func TestFormatSalary(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"", "面议"},
		{"-", "面议"},
		{"  ", "面议"},
		{"-K", "面议*"},
		{"- 万", "面议*"},
		{"-元/天", "面议*"},
		{"K·13薪", "面议*"},
		{"薪资面议", "面议*"},
		{"15-25K", "15-25K"},
		{" 1.5-2万 ", "1.5-2万"},
		{"150-200/天", "150-200/天"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			if got := FormatSalary(tc.in); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func report(kind domain.Kind, n int) domain.Report {
	var listings []domain.Listing
	for i := 0; i < n; i++ {
		listings = append(listings, domain.Listing{
			Title:       fmt.Sprintf("岗位%d", i+1),
			Company:     "公司",
			Salary:      "-K",
			City:        "北京",
			Duration:    "6个月",
			DaysPerWeek: "4天/周",
			Source:      "猎聘",
			URL:         fmt.Sprintf("https://x/%d", i),
		})
	}
	res := domain.AggregatedResult{Total: n, BySource: domain.CountBySource(listings), Listings: listings, FilteredCount: 2}
	return domain.NewReport(kind, domain.Query{Position: "go", Page: 1, PageSize: 20}, res, "")
}

func TestPrintReportTruncates(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, report(domain.KindJob, 12), 1500*time.Millisecond, 10)
	out := buf.String()

	for _, want := range []string{
		"搜索完成！共找到 12 个职位",
		"总耗时: 1.50 秒",
		"  - 猎聘: 12 个",
		"按城市过滤掉 2 个",
		"10. 岗位10",
		"薪资: 面议*",
		"经验:",
		"... 还有 2 个职位未显示",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "岗位11") {
		t.Error("Expected listings past maxDisplay to be hidden")
	}
}

func TestPrintReportIntern(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, report(domain.KindIntern, 2), time.Second, 0)
	out := buf.String()
	for _, want := range []string{"共找到 2 个实习", "时长: 6个月", "天数: 4天/周", "链接: https://x/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "未显示") || strings.Contains(out, "经验:") {
		t.Errorf("Expected full intern list without job fields, got:\n%s", out)
	}
}

func TestPrintReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, report(domain.KindJob, 0), time.Second, 10)
	if !strings.Contains(buf.String(), "未找到符合条件的职位") {
		t.Errorf("Expected empty hint, got:\n%s", buf.String())
	}
}

func TestPrintQuery(t *testing.T) {
	var buf bytes.Buffer
	PrintQuery(&buf, domain.KindJob, domain.Query{Position: "golang", City: "上海"})
	out := buf.String()
	if !strings.Contains(out, "正在搜索职位: golang") || !strings.Contains(out, "城市: 上海") {
		t.Errorf("Unexpected header:\n%s", out)
	}
	if strings.Contains(out, "学历") {
		t.Errorf("Expected empty fields omitted, got:\n%s", out)
	}
}
