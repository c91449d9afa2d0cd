package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/cin7"
)

const productTemplate = `{
  "SKU": "",
  "Name": "",
  "Category": "",
  "Brand": "",
  "Barcode": "",
  "Status": "",
  "Type": "",
  "UOM": "Item",
  "CostingMethod": "",
  "DefaultLocation": "",
  "PriceTier1": 0.0,
  "PriceTier2": 0.0,
  "PurchasePrice": 0.0,
  "COGSAccount": "5000",
  "RevenueAccount": "4000",
  "InventoryAccount": "1401",
  "PurchaseTaxRule": "",
  "SaleTaxRule": "",
  "Suppliers": []
}`

const supplierTemplate = `{
  "Name": "",
  "ContactPerson": "",
  "Phone": "",
  "Email": "",
  "Website": "",
  "Address": {
    "Line1": "",
    "Line2": "",
    "City": "",
    "State": "",
    "Postcode": "",
    "Country": ""
  },
  "PaymentTerm": "",
  "Discount": 0.0,
  "TaxRule": "",
  "Currency": ""
}`

const purchaseOrderTemplate = `{
  "TaskID": "",
  "Supplier": "",
  "Location": "",
  "Status": "",
  "OrderDate": "",
  "RequiredBy": "",
  "CurrencyCode": "",
  "Note": "",
  "Lines": [
    {
      "ProductID": "",
      "SKU": "",
      "Name": "",
      "Quantity": 1.0,
      "Price": 0.0,
      "Tax": 0.0,
      "TaxRule": "",
      "Total": 0.0,
      "Discount": 0.0,
      "SupplierSKU": "",
      "Comment": ""
    }
  ],
  "AdditionalCharges": [
    {
      "Description": "",
      "Quantity": 1.0,
      "Price": 0.0,
      "Tax": 0.0,
      "TaxRule": "",
      "Total": 0.0,
      "Reference": "",
      "Discount": 0.0
    }
  ],
  "Memo": ""
}`

const saleTemplate = `{
  "CustomerID": "",
  "Customer": "",
  "Phone": "",
  "Email": "",
  "Contact": "",
  "DefaultAccount": "200",
  "BillingAddress": {
    "Line1": "",
    "Line2": "",
    "City": "",
    "State": "",
    "Postcode": "",
    "Country": ""
  },
  "ShippingAddress": {
    "Line1": "",
    "Line2": "",
    "City": "",
    "State": "",
    "Postcode": "",
    "Country": "",
    "Company": "",
    "Contact": "",
    "ShipToOther": false
  },
  "ShippingNotes": "",
  "TaxRule": "",
  "Terms": "",
  "PriceTier": "Tier 1",
  "Location": "",
  "Note": "",
  "CustomerReference": "",
  "SalesRepresentative": "",
  "Carrier": "",
  "CurrencyRate": 1.0,
  "SaleOrderDate": "",
  "ShipBy": "",
  "SkipQuote": null,
  "Status": "",
  "Lines": [
    {
      "ProductID": "",
      "SKU": "",
      "Name": "",
      "Quantity": 1.0,
      "Price": 0.0,
      "Discount": 0.0,
      "Tax": 0.0,
      "AverageCost": 0.0,
      "TaxRule": "",
      "Comment": "",
      "Total": 0.0
    }
  ],
  "AdditionalCharges": [
    {
      "Description": "",
      "Price": 0.0,
      "Quantity": 1.0,
      "Discount": 0.0,
      "Tax": 0.0,
      "Total": 0.0,
      "TaxRule": "",
      "Comment": ""
    }
  ],
  "Memo": ""
}`

// registerTemplates exposes the blank payload templates as static
// resources, plus URI-templated lookups that return an existing record
// as a starting point for updates.
func (s *Server) registerTemplates(srv *mcp.Server) {
	statics := []struct {
		uri, name, text string
	}{
		{"cin7://templates/product", "Product template", productTemplate},
		{"cin7://templates/supplier", "Supplier template", supplierTemplate},
		{"cin7://templates/purchase_order", "Purchase order template", purchaseOrderTemplate},
		{"cin7://templates/sale", "Sale template", saleTemplate},
	}
	for _, res := range statics {
		text := res.text
		srv.AddResource(&mcp.Resource{
			URI:         res.uri,
			Name:        res.name,
			Description: "Blank payload template with all available fields",
			MIMEType:    "application/json",
		}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonResource(req.Params.URI, text), nil
		})
	}

	lookups := []struct {
		template, name string
		fetch          func(ctx context.Context, key string) (map[string]any, error)
	}{
		{"cin7://templates/product/{product_id}", "Product by ID", func(ctx context.Context, key string) (map[string]any, error) {
			return s.client.GetProduct(ctx, key, "")
		}},
		{"cin7://templates/product/sku/{sku}", "Product by SKU", func(ctx context.Context, key string) (map[string]any, error) {
			return s.client.GetProduct(ctx, "", key)
		}},
		{"cin7://templates/supplier/{supplier_id}", "Supplier by ID", func(ctx context.Context, key string) (map[string]any, error) {
			return s.client.GetSupplier(ctx, key, "")
		}},
		{"cin7://templates/supplier/name/{name}", "Supplier by name", func(ctx context.Context, key string) (map[string]any, error) {
			return s.client.GetSupplier(ctx, "", key)
		}},
		{"cin7://templates/purchase_order/{purchase_order_id}", "Purchase order by ID", func(ctx context.Context, key string) (map[string]any, error) {
			return s.client.GetPurchaseOrder(ctx, key)
		}},
		{"cin7://templates/sale/{sale_id}", "Sale by ID", s.saleByID},
	}
	for _, res := range lookups {
		fetch := res.fetch
		srv.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: res.template,
			Name:        res.name,
			Description: "Existing record as a template for updates",
			MIMEType:    "application/json",
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			uri := req.Params.URI
			key := lastSegment(uri)
			if key == "" {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			record, err := fetch(ctx, key)
			if err != nil {
				return nil, err
			}
			body, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, string(body)), nil
		})
	}
}

func (s *Server) saleByID(ctx context.Context, saleID string) (map[string]any, error) {
	return s.client.GetSale(ctx, saleID, cin7.SaleDetailOptions{})
}

func jsonResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

func lastSegment(uri string) string {
	i := strings.LastIndex(uri, "/")
	if i < 0 || i == len(uri)-1 {
		return ""
	}
	return uri[i+1:]
}
