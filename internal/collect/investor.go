package collect

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/quantbt/internal/data"
)

const maxInvestorPages = 150

// FetchInvestorFlow fetches foreign/institutional net buying from the Naver
// Finance investor pages, newest first, paging backwards until from is
// passed
// ⭐ SSOT: 수급 페이지 파싱은 이 함수에서만
func (c *Client) FetchInvestorFlow(ctx context.Context, code string, from, to time.Time) ([]data.FlowRecord, error) {
	var all []data.FlowRecord
	emptyPages := 0

	for page := 1; page <= maxInvestorPages; page++ {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		url := fmt.Sprintf("%s/item/frgn.naver?code=%s&page=%d", c.baseURL, code, page)
		body, err := c.fetch(ctx, url)
		if err != nil {
			return all, err
		}

		records, lastDate, hasMore := parseInvestorPage(body, code, from, to)
		all = append(all, records...)

		if !lastDate.IsZero() && lastDate.Before(from) {
			break
		}
		if !hasMore {
			break
		}
		if lastDate.IsZero() {
			emptyPages++
			if emptyPages >= 3 {
				break
			}
		} else {
			emptyPages = 0
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": code,
		"count":      len(all),
	}).Debug("Fetched investor flow")
	return all, nil
}

var investorDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// parseInvestorPage extracts flow rows from one HTML page. Returns the last
// date seen (zero when the page held no rows) and whether another page
// exists.
func parseInvestorPage(html, code string, from, to time.Time) ([]data.FlowRecord, time.Time, bool) {
	var records []data.FlowRecord
	var lastDate time.Time

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return records, lastDate, false
	}

	// 두번째 type2 테이블이 일별 수급 테이블
	tables := doc.Find("table.type2")
	if tables.Length() < 2 {
		return records, lastDate, false
	}

	tables.Eq(1).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !investorDateRe.MatchString(dateText) {
			return
		}
		date, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}
		lastDate = date

		if date.Before(from) || date.After(to) {
			return
		}

		// 컬럼: 날짜 | 종가 | 대비 | 등락률 | 거래량 | 기관 | 외국인
		instNet := parseSignedNumber(cells.Eq(5).Text())
		foreignNet := parseSignedNumber(cells.Eq(6).Text())

		records = append(records, data.FlowRecord{
			Code:           code,
			Date:           date,
			ForeignNet:     foreignNet,
			InstitutionNet: instNet,
			IndividualNet:  -(foreignNet + instNet),
		})
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return records, lastDate, hasMore
}

func parseSignedNumber(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
