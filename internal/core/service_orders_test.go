package core

import (
	"sync"
	"testing"

	"ordercore/pkg/domain"
)

func TestCreateOrderSnapshotsPricesAndTotal(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	laptop := mustCreateProduct(t, svc, ctx, "laptop", 1200, 10)
	mouse := mustCreateProduct(t, svc, ctx, "mouse", 25, 30)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	order, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items: []OrderItemInput{
			{ProductID: laptop.ID, Quantity: 2},
			{ProductID: mouse.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Owner != "seller-1" {
		t.Fatalf("owner = %q", order.Owner)
	}
	if order.Status != StatusPending {
		t.Fatalf("status = %q, want PENDING default", order.Status)
	}
	if order.Total != 2*1200+3*25 {
		t.Fatalf("total = %v, want 2475", order.Total)
	}

	// Catalog price changes must not alter the stored snapshot.
	if _, _, err := svc.UpdateProduct(ctx, laptop.ID, func(p *Product) error {
		p.Price = 900
		return nil
	}); err != nil {
		t.Fatalf("reprice: %v", err)
	}
	got, err := svc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Items[0].UnitPrice != 1200 {
		t.Fatalf("unit price = %v, want snapshot 1200", got.Items[0].UnitPrice)
	}

	gotLaptop, _ := svc.GetProduct(ctx, laptop.ID)
	if gotLaptop.Stock != 8 {
		t.Fatalf("laptop stock = %d, want 8", gotLaptop.Stock)
	}
	gotMouse, _ := svc.GetProduct(ctx, mouse.ID)
	if gotMouse.Stock != 27 {
		t.Fatalf("mouse stock = %d, want 27", gotMouse.Stock)
	}
}

func TestCreateOrderIsAllOrNothing(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	laptop := mustCreateProduct(t, svc, ctx, "laptop", 1200, 10)
	cable := mustCreateProduct(t, svc, ctx, "cable", 5, 2)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	_, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items: []OrderItemInput{
			{ProductID: laptop.ID, Quantity: 1},
			{ProductID: cable.ID, Quantity: 3},
		},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}

	gotLaptop, _ := svc.GetProduct(ctx, laptop.ID)
	if gotLaptop.Stock != 10 {
		t.Fatalf("laptop stock = %d, earlier item must roll back", gotLaptop.Stock)
	}
	gotCable, _ := svc.GetProduct(ctx, cable.ID)
	if gotCable.Stock != 2 {
		t.Fatalf("cable stock = %d, want 2", gotCable.Stock)
	}
	orders, _ := svc.ListOrders(ctx)
	if len(orders) != 0 {
		t.Fatalf("orders = %d, want 0", len(orders))
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	product := mustCreateProduct(t, svc, ctx, "laptop", 1200, 10)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	if _, _, err := svc.CreateOrder(ctx, OrderInput{CustomerID: customer.ID}); err == nil {
		t.Fatalf("empty items should be rejected")
	}
	if _, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 0}},
	}); err == nil {
		t.Fatalf("zero quantity should be rejected")
	}
	if _, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		Status:     "SHIPPED",
	}); err == nil {
		t.Fatalf("unknown status should be rejected")
	}
	if _, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: "missing",
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	}); !domain.IsNotFound(err) {
		t.Fatalf("unknown customer err = %v, want NotFound", err)
	}
	if _, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: "missing", Quantity: 1}},
	}); !domain.IsNotFound(err) {
		t.Fatalf("unknown product err = %v, want NotFound", err)
	}
}

func TestCreateOrderForeignCustomerDenied(t *testing.T) {
	svc := NewInMemoryService()
	owner := asPrincipal("seller-1")
	intruder := asPrincipal("seller-2")
	product := mustCreateProduct(t, svc, owner, "laptop", 1200, 10)
	customer := mustCreateCustomer(t, svc, owner, "Ada", "ada@example.com")

	_, _, err := svc.CreateOrder(intruder, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if !domain.IsPermissionDenied(err) {
		t.Fatalf("err = %v, want PermissionDenied", err)
	}
	got, _ := svc.GetProduct(owner, product.ID)
	if got.Stock != 10 {
		t.Fatalf("stock = %d, denied order must not reserve", got.Stock)
	}
}

func TestUpdateOrderRevertsAndReservesStock(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	product := mustCreateProduct(t, svc, ctx, "laptop", 1200, 10)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	order, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got, _ := svc.GetProduct(ctx, product.ID); got.Stock != 7 {
		t.Fatalf("stock = %d, want 7", got.Stock)
	}

	// Catalog repriced between create and update: the new line items snapshot
	// the new price.
	if _, _, err := svc.UpdateProduct(ctx, product.ID, func(p *Product) error {
		p.Price = 1000
		return nil
	}); err != nil {
		t.Fatalf("reprice: %v", err)
	}

	updated, _, err := svc.UpdateOrder(ctx, order.ID, OrderInput{
		Items:  []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		Status: StatusInProgress,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := svc.GetProduct(ctx, product.ID); got.Stock != 9 {
		t.Fatalf("stock = %d, want 9 after revert and re-reserve", got.Stock)
	}
	if updated.Total != 1000 {
		t.Fatalf("total = %v, want 1000 at new price", updated.Total)
	}
	if updated.Status != StatusInProgress {
		t.Fatalf("status = %q", updated.Status)
	}
}

func TestUpdateOrderFailureLeavesEverythingUntouched(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	product := mustCreateProduct(t, svc, ctx, "laptop", 1200, 10)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	order, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Requesting more than released+available must fail and roll back.
	_, _, err = svc.UpdateOrder(ctx, order.ID, OrderInput{
		Items: []OrderItemInput{{ProductID: product.ID, Quantity: 11}},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}
	if got, _ := svc.GetProduct(ctx, product.ID); got.Stock != 7 {
		t.Fatalf("stock = %d, want 7 unchanged", got.Stock)
	}
	got, err := svc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Items[0].Quantity != 3 {
		t.Fatalf("order quantity = %d, want original 3", got.Items[0].Quantity)
	}
}

func TestUpdateOrderReleaseSkipsDeletedProduct(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	oldProduct := mustCreateProduct(t, svc, ctx, "discontinued", 50, 5)
	newProduct := mustCreateProduct(t, svc, ctx, "replacement", 60, 5)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	order, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: oldProduct.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.DeleteProduct(ctx, oldProduct.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	updated, _, err := svc.UpdateOrder(ctx, order.ID, OrderInput{
		Items: []OrderItemInput{{ProductID: newProduct.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("update after product deletion: %v", err)
	}
	if updated.Items[0].ProductID != newProduct.ID {
		t.Fatalf("items = %+v", updated.Items)
	}
}

func TestUpdateOrderStatusOnly(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	product := mustCreateProduct(t, svc, ctx, "laptop", 1200, 10)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	order, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, _, err := svc.UpdateOrderStatus(ctx, order.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("status transition: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Fatalf("status = %q", updated.Status)
	}
	if got, _ := svc.GetProduct(ctx, product.ID); got.Stock != 8 {
		t.Fatalf("stock = %d, status change must not touch stock", got.Stock)
	}

	if _, _, err := svc.UpdateOrderStatus(ctx, order.ID, "SHIPPED"); err == nil {
		t.Fatalf("unknown status should be rejected")
	}
}

func TestDeleteOrderNeverRestocks(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	product := mustCreateProduct(t, svc, ctx, "laptop", 1200, 10)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	order, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got, _ := svc.GetProduct(ctx, product.ID); got.Stock != 6 {
		t.Fatalf("stock = %d, want 6 (no restock on delete)", got.Stock)
	}
	if _, err := svc.GetOrder(ctx, order.ID); !domain.IsNotFound(err) {
		t.Fatalf("get deleted err = %v, want NotFound", err)
	}
}

func TestOrderAccessControl(t *testing.T) {
	svc := NewInMemoryService()
	owner := asPrincipal("seller-1")
	intruder := asPrincipal("seller-2")
	product := mustCreateProduct(t, svc, owner, "laptop", 1200, 10)
	customer := mustCreateCustomer(t, svc, owner, "Ada", "ada@example.com")

	order, _, err := svc.CreateOrder(owner, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetOrder(intruder, order.ID); !domain.IsPermissionDenied(err) {
		t.Fatalf("get err = %v, want PermissionDenied", err)
	}
	if _, err := svc.GetOrder(intruder, "missing"); !domain.IsNotFound(err) {
		t.Fatalf("missing order must report NotFound before ownership, got %v", err)
	}
	if _, _, err := svc.UpdateOrder(intruder, order.ID, OrderInput{
		Items: []OrderItemInput{{ProductID: product.ID, Quantity: 2}},
	}); !domain.IsPermissionDenied(err) {
		t.Fatalf("update err = %v, want PermissionDenied", err)
	}
	if _, err := svc.DeleteOrder(intruder, order.ID); !domain.IsPermissionDenied(err) {
		t.Fatalf("delete err = %v, want PermissionDenied", err)
	}

	if got, _ := svc.GetProduct(owner, product.ID); got.Stock != 9 {
		t.Fatalf("stock = %d, denied operations must not mutate", got.Stock)
	}
}

func TestListOrdersScopedAndByStatus(t *testing.T) {
	svc := NewInMemoryService()
	sellerA := asPrincipal("seller-a")
	sellerB := asPrincipal("seller-b")
	product := mustCreateProduct(t, svc, sellerA, "laptop", 1200, 100)
	customerA := mustCreateCustomer(t, svc, sellerA, "Ada", "ada@example.com")
	customerB := mustCreateCustomer(t, svc, sellerB, "Linus", "linus@example.com")

	for i := 0; i < 2; i++ {
		if _, _, err := svc.CreateOrder(sellerA, OrderInput{
			CustomerID: customerA.ID,
			Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		}); err != nil {
			t.Fatalf("seller-a order: %v", err)
		}
	}
	orderB, _, err := svc.CreateOrder(sellerB, OrderInput{
		CustomerID: customerB.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("seller-b order: %v", err)
	}
	if _, _, err := svc.UpdateOrderStatus(sellerB, orderB.ID, StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	mine, err := svc.ListOrders(sellerA)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("seller-a orders = %d, want 2", len(mine))
	}

	completed, err := svc.ListOrdersByStatus(sellerB, StatusCompleted)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("completed = %d, want 1", len(completed))
	}
	if _, err := svc.ListOrdersByStatus(sellerA, "SHIPPED"); err == nil {
		t.Fatalf("unknown status should be rejected")
	}

	all, err := svc.ListAllOrders(sellerA)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all orders = %d, want 3", len(all))
	}
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	product := mustCreateProduct(t, svc, ctx, "limited", 100, 5)
	customer := mustCreateCustomer(t, svc, ctx, "Ada", "ada@example.com")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	quantities := []int{3, 2}
	wg.Add(len(quantities))
	for i, qty := range quantities {
		go func(i, qty int) {
			defer wg.Done()
			_, _, errs[i] = svc.CreateOrder(ctx, OrderInput{
				CustomerID: customer.ID,
				Items:      []OrderItemInput{{ProductID: product.ID, Quantity: qty}},
			})
		}(i, qty)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
	}
	if got, _ := svc.GetProduct(ctx, product.ID); got.Stock != 0 {
		t.Fatalf("stock = %d, want 0", got.Stock)
	}

	// The well is dry: one more unit must be refused.
	_, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}
}

func TestUpdateOrderWithoutItemsKeepsStockAndLines(t *testing.T) {
	svc := NewInMemoryService()
	ctx := asPrincipal("seller-1")
	product := mustCreateProduct(t, svc, ctx, "laptop", 500, 10)
	customer := mustCreateCustomer(t, svc, ctx, "ada", "ada@example.com")
	other := mustCreateCustomer(t, svc, ctx, "grace", "grace@example.com")

	order, _, err := svc.CreateOrder(ctx, OrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, _, err := svc.UpdateOrder(ctx, order.ID, OrderInput{CustomerID: other.ID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CustomerID != other.ID {
		t.Fatalf("customer = %s, want %s", updated.CustomerID, other.ID)
	}
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 4 {
		t.Fatalf("items = %+v", updated.Items)
	}
	if got, _ := svc.GetProduct(ctx, product.ID); got.Stock != 6 {
		t.Fatalf("stock = %d, want 6", got.Stock)
	}
}
