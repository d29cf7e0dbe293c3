package usecase

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"laekning/internal/domain/model"
	"laekning/internal/metrics"
	repo "laekning/internal/repository"
	"laekning/internal/session"

	"github.com/shopspring/decimal"
)

const msgCartEmpty = "Sorry, your cart is empty!"

type OrderUsecase struct {
	orders    repo.OrderRepository
	products  repo.ProductRepository
	validator OrderValidator
	publisher EventPublisher
	locks     *session.KeyedMutex
	clock     Clock
	metrics   *metrics.Metrics
}

func NewOrderUsecase(
	orders repo.OrderRepository,
	products repo.ProductRepository,
	validator OrderValidator,
	publisher EventPublisher,
	locks *session.KeyedMutex,
	clock Clock,
	m *metrics.Metrics,
) *OrderUsecase {
	return &OrderUsecase{
		orders:    orders,
		products:  products,
		validator: validator,
		publisher: publisher,
		locks:     locks,
		clock:     clock,
		metrics:   m,
	}
}

// POST /checkout の入力DTO
type CheckoutInput struct {
	Name     string
	Line1    string
	Line2    string
	Line3    string
	City     string
	State    string
	Zip      string
	Country  string
	GiftWrap bool
}

type OrderLineOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type OrderOutput struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Line1     string            `json:"line1"`
	Line2     string            `json:"line2"`
	Line3     string            `json:"line3"`
	City      string            `json:"city"`
	State     string            `json:"state"`
	Zip       string            `json:"zip"`
	Country   string            `json:"country"`
	GiftWrap  bool              `json:"gift_wrap"`
	Shipped   bool              `json:"shipped"`
	OrderDate time.Time         `json:"order_date"`
	Total     decimal.Decimal   `json:"total"`
	Lines     []OrderLineOutput `json:"lines"`
}

func toOrderOutput(o model.Order) OrderOutput {
	lines := make([]OrderLineOutput, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineOutput{
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
		})
	}
	return OrderOutput{
		ID:        o.ID,
		Name:      o.Name,
		Line1:     o.Line1,
		Line2:     o.Line2,
		Line3:     o.Line3,
		City:      o.City,
		State:     o.State,
		Zip:       o.Zip,
		Country:   o.Country,
		GiftWrap:  o.GiftWrap,
		Shipped:   o.Shipped,
		OrderDate: o.OrderDate,
		Total:     o.TotalValue(),
		Lines:     lines,
	}
}

// Checkout はカートを注文に写して保存し、カートを空にする。
// 入力エラー・空カートなら何も保存せずカートも残す。
func (u *OrderUsecase) Checkout(ctx context.Context, store session.Store, in CheckoutInput) (int64, error) {
	unlock := u.locks.Lock(store.ID())
	defer unlock()

	sc, err := session.LoadCart(ctx, store, u.products)
	if err != nil {
		return 0, dbError()
	}
	cart := sc.Cart()

	order := model.Order{
		Name:      strings.TrimSpace(in.Name),
		Line1:     strings.TrimSpace(in.Line1),
		Line2:     strings.TrimSpace(in.Line2),
		Line3:     strings.TrimSpace(in.Line3),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		Zip:       strings.TrimSpace(in.Zip),
		Country:   strings.TrimSpace(in.Country),
		GiftWrap:  in.GiftWrap,
		OrderDate: u.clock.Now().UTC(),
	}

	fields := map[string]string{}
	for k, v := range u.validator.ValidateOrder(order) {
		fields[k] = v
	}
	if cart.IsEmpty() {
		fields[""] = msgCartEmpty
	}
	if len(fields) > 0 {
		return 0, NewValidationError(fields)
	}

	//カートの行を値でコピー（以後カートとは独立）
	order.Lines = model.NewOrderLines(cart)
	if err := u.orders.Save(ctx, &order); err != nil {
		return 0, dbError()
	}
	u.metrics.OrderPlaced()

	publishEvent(ctx, u.publisher, u.metrics, strconv.FormatInt(order.ID, 10), model.NewOrderPlacedEvent(order))

	sc.Clear(ctx)
	u.metrics.CartMutated("clear")

	return order.ID, nil
}

// 注文完了画面
func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, dbError()
	}
	return toOrderOutput(o), nil
}
