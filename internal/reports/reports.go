// Package reports materializes sales rollups into downloadable artifacts.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ordercore/internal/core"
)

// Kind identifies a built-in report.
type Kind string

const (
	// KindTopCustomers ranks customers by completed order revenue.
	KindTopCustomers Kind = "top_customers"
	// KindTopSellers ranks principals by completed order revenue.
	KindTopSellers Kind = "top_sellers"
)

// Format identifies an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Source supplies the rollups a report renders. *core.Service satisfies it.
type Source interface {
	TopCustomers(ctx context.Context, limit int) ([]core.CustomerRollup, error)
	TopSellers(ctx context.Context, limit int) ([]core.SellerRollup, error)
}

// Result holds a computed report before rendering.
type Result struct {
	Kind        Kind       `json:"kind"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	GeneratedAt time.Time  `json:"generated_at"`
}

func runReport(ctx context.Context, source Source, kind Kind, limit int) (Result, error) {
	res := Result{Kind: kind, GeneratedAt: time.Now().UTC()}
	switch kind {
	case KindTopCustomers:
		rollups, err := source.TopCustomers(ctx, limit)
		if err != nil {
			return Result{}, err
		}
		res.Columns = []string{"customer_id", "name", "company", "email", "orders", "total"}
		for _, r := range rollups {
			res.Rows = append(res.Rows, []string{
				r.Customer.ID,
				r.Customer.Name,
				r.Customer.Company,
				r.Customer.Email,
				strconv.Itoa(r.Orders),
				formatAmount(r.Total),
			})
		}
	case KindTopSellers:
		rollups, err := source.TopSellers(ctx, limit)
		if err != nil {
			return Result{}, err
		}
		res.Columns = []string{"principal_id", "orders", "total"}
		for _, r := range rollups {
			res.Rows = append(res.Rows, []string{
				r.PrincipalID,
				strconv.Itoa(r.Orders),
				formatAmount(r.Total),
			})
		}
	default:
		return Result{}, fmt.Errorf("unknown report kind %s", kind)
	}
	return res, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func renderResult(format Format, result Result) (payload []byte, contentType string, err error) {
	switch format {
	case FormatJSON:
		payload, err = json.Marshal(result)
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(result.Columns); err != nil {
			return nil, "", err
		}
		for _, row := range result.Rows {
			if err := writer.Write(row); err != nil {
				return nil, "", err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported report format %s", format)
	}
}
