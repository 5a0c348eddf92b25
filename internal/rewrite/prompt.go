package rewrite

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	summaryLabel   = "요약"
	summaryRunes   = 50
	pointRunes     = 30
	insightRunes   = 60
	defaultHint    = "핵심 포인트"
	maxInsightList = 10
)

var summaryRe = regexp.MustCompile(`(?i)^[*#\-\s]*(요약|summary)\s*\**\s*[:：]\s*`)

// Prompt builds the rewrite prompt for one item.
func Prompt(req Request) string {
	var b strings.Builder
	topic := req.Category
	if topic == "" {
		topic = "산업"
	}
	hint := req.PointHint
	if hint == "" {
		hint = defaultHint
	}

	b.WriteString(fmt.Sprintf("다음 %s 뉴스를 분석해주세요:\n\n", topic))
	b.WriteString(fmt.Sprintf("제목: %s\n내용: %s\n\n", req.Title, req.Text))
	b.WriteString("요구사항:\n")
	b.WriteString(fmt.Sprintf("1. 핵심 내용을 %d자 이내로 요약\n", summaryRunes))
	if req.PointLabel != "" {
		b.WriteString(fmt.Sprintf("2. %s을(를) %d자 이내로 설명\n", hint, pointRunes))
	}
	b.WriteString("설명이나 주석 없이 아래 형식으로만 답하세요.\n\n응답 형식:\n")
	b.WriteString(fmt.Sprintf("%s: [%d자 이내 요약]\n", summaryLabel, summaryRunes))
	if req.PointLabel != "" {
		b.WriteString(fmt.Sprintf("%s: [%d자 이내]\n", req.PointLabel, pointRunes))
	}
	return b.String()
}

// InsightPrompt builds the closing-insight prompt.
func InsightPrompt(req InsightRequest) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("다음은 오늘의 %s 주요 헤드라인입니다:\n\n", req.Topic))
	for i, t := range req.Titles {
		if i >= maxInsightList {
			break
		}
		b.WriteString(fmt.Sprintf("- %s\n", t))
	}
	b.WriteString(fmt.Sprintf("\n오늘의 흐름을 %d자 이내 한 문장으로 정리하세요. 문장만 답하세요.", insightRunes))
	return b.String()
}

// ParseResponse extracts the labelled summary and point lines. Unlabelled
// continuation lines extend the current section.
func ParseResponse(text, pointLabel string) (Result, error) {
	var pointRe *regexp.Regexp
	if pointLabel != "" {
		pointRe = regexp.MustCompile(`(?i)^[*#\-\s]*(` + regexp.QuoteMeta(pointLabel) + `|point)\s*\**\s*[:：]\s*`)
	}

	var summary, point strings.Builder
	current := ""
	appendTo := func(section, s string) {
		s = strings.TrimSpace(strings.Trim(s, "[]*"))
		if s == "" {
			return
		}
		b := &summary
		if section == "point" {
			b = &point
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s)
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case summaryRe.MatchString(line):
			current = "summary"
			appendTo(current, summaryRe.ReplaceAllString(line, ""))
		case pointRe != nil && pointRe.MatchString(line):
			current = "point"
			appendTo(current, pointRe.ReplaceAllString(line, ""))
		case current != "":
			appendTo(current, line)
		}
	}

	res := Result{
		Summary: SanitizeAIText(summary.String()),
		Point:   SanitizeAIText(point.String()),
	}
	if res.Summary == "" {
		return Result{}, fmt.Errorf("could not parse rewrite response: no %s line", summaryLabel)
	}
	return res, nil
}

// ParseInsight cleans a one-line insight answer.
func ParseInsight(text string) string {
	for _, raw := range strings.Split(SanitizeAIText(text), "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			return line
		}
	}
	return ""
}
