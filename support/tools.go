package support

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/config"
)

// tools bundles the HTTP-backed capabilities the specialist teams expose.
// Base URLs come from configuration so tests can point them at local fakes.
type tools struct {
	client            *http.Client
	orderAPIBaseURL   string
	paymentAPIBaseURL string
}

func newTools(cfg config.SupportConfig) *tools {
	return &tools{
		client:            &http.Client{Timeout: 5 * time.Second},
		orderAPIBaseURL:   cfg.OrderAPIBaseURL,
		paymentAPIBaseURL: cfg.PaymentAPIBaseURL,
	}
}

type trackingArgs struct {
	TrackingNo string `json:"tracking_no" description:"The tracking number of the order."`
}

// OrderStatus looks an order up by tracking number in the order service and
// reports its status and content.
func (t *tools) OrderStatus() capability.Capability {
	return capability.NewFunctionFromStruct(
		"get_order_status",
		"Retrieves the current status of the given tracking number.",
		trackingArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			trackingNo, _ := args["tracking_no"].(string)

			var data struct {
				Date     string `json:"date"`
				Products []struct {
					ProductID int `json:"productId"`
					Quantity  int `json:"quantity"`
				} `json:"products"`
			}
			if err := t.getJSON(ctx, fmt.Sprintf("%s/carts/%s", t.orderAPIBaseURL, trackingNo), &data); err != nil {
				return nil, fmt.Errorf("failed to get order: %w", err)
			}

			statuses := []string{"processing", "shipped", "delivered"}
			return map[string]any{
				"tracking_no": trackingNo,
				"status":      statuses[rand.IntN(len(statuses))],
				"order_date":  data.Date,
				"products":    data.Products,
			}, nil
		})
}

// RefundStatus reports the refund state for a tracking number. The refund
// ledger has no queryable upstream, so the state is simulated.
func (t *tools) RefundStatus() capability.Capability {
	return capability.NewFunctionFromStruct(
		"get_refund_status",
		"Retrieves the status of a refund for a given tracking number.",
		trackingArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			trackingNo, _ := args["tracking_no"].(string)

			statuses := []string{"refund_requested", "refund_processed", "no_refund_found"}
			status := statuses[rand.IntN(len(statuses))]
			result := map[string]any{
				"tracking_no": trackingNo,
				"status":      status,
			}
			if status == "refund_processed" {
				result["amount"] = math.Round((10+rand.Float64()*190)*100) / 100
			}
			return result, nil
		})
}

// PaymentDetails fetches the customer's profile from the payment service and
// reports the payment methods on file.
func (t *tools) PaymentDetails() capability.Capability {
	return capability.NewFunction(
		"get_payment_details",
		"Retrieves the payment methods or details on file for the customer.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			customerID := 1 + rand.IntN(5)

			var data struct {
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
			}
			if err := t.getJSON(ctx, fmt.Sprintf("%s/users/%d", t.paymentAPIBaseURL, customerID), &data); err != nil {
				return nil, fmt.Errorf("failed to get payment details: %w", err)
			}

			return map[string]any{
				"customer_id":   customerID,
				"customer_name": fmt.Sprintf("%s %s", data.FirstName, data.LastName),
				"payment_methods": []map[string]any{
					{"type": "Visa", "last_four": fmt.Sprintf("%04d", rand.IntN(10000))},
				},
			}, nil
		})
}

func (t *tools) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s returned status %d", url, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
