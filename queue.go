package match

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// priceUnit is one price level: an intrusive FIFO of orders plus the
// aggregated size for depth queries and FOK admission sums.
type priceUnit struct {
	price     decimal.Decimal
	totalSize decimal.Decimal
	head      *Order
	tail      *Order
	count     int64
}

type queue struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
	priceList   map[string]*skiplist.Element
	orders      map[string]*Order
}

// NewBuyerQueue creates a new queue for buy orders (bids).
// The price levels are sorted in descending order (highest price first).
func NewBuyerQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			d1, _ := lhs.(decimal.Decimal)
			d2, _ := rhs.(decimal.Decimal)

			if d1.LessThan(d2) {
				return 1
			} else if d1.GreaterThan(d2) {
				return -1
			}

			return 0
		})),
		priceList: make(map[string]*skiplist.Element),
		orders:    make(map[string]*Order),
	}
}

// NewSellerQueue creates a new queue for sell orders (asks).
// The price levels are sorted in ascending order (lowest price first).
func NewSellerQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			d1, _ := lhs.(decimal.Decimal)
			d2, _ := rhs.(decimal.Decimal)

			if d1.GreaterThan(d2) {
				return 1
			} else if d1.LessThan(d2) {
				return -1
			}

			return 0
		})),
		priceList: make(map[string]*skiplist.Element),
		orders:    make(map[string]*Order),
	}
}

// order finds an order by its ID.
func (q *queue) order(id string) *Order {
	return q.orders[id]
}

// insertOrder inserts an order into the queue.
// isFront re-inserts a partially filled maker at the head of its level,
// keeping its time priority; new liquidity always goes to the back.
func (q *queue) insertOrder(order *Order, isFront bool) {
	el, ok := q.priceList[order.Price.String()]
	if ok {
		unit, _ := el.Value.(*priceUnit)
		if isFront {
			order.next = unit.head
			order.prev = nil
			if unit.head != nil {
				unit.head.prev = order
			}
			unit.head = order
			if unit.tail == nil {
				unit.tail = order
			}
		} else {
			order.prev = unit.tail
			order.next = nil
			if unit.tail != nil {
				unit.tail.next = order
			}
			unit.tail = order
			if unit.head == nil {
				unit.head = order
			}
		}

		unit.totalSize = unit.totalSize.Add(order.Size)
		unit.count++
		q.orders[order.ID] = order
		q.totalOrders++
	} else {
		unit := &priceUnit{
			price:     order.Price,
			head:      order,
			tail:      order,
			totalSize: order.Size,
			count:     1,
		}
		order.next = nil
		order.prev = nil

		q.orders[order.ID] = order

		el := q.depthList.Set(order.Price, unit)
		q.priceList[order.Price.String()] = el

		q.totalOrders++
		q.depths++
	}
}

// removeOrder removes an order from the queue by price and ID.
// It also cleans up the price unit if it becomes empty.
func (q *queue) removeOrder(price decimal.Decimal, id string) {
	skipElement, ok := q.priceList[price.String()]
	if !ok {
		return
	}
	unit, _ := skipElement.Value.(*priceUnit)

	order, ok := q.orders[id]
	if !ok {
		return
	}

	if order.prev != nil {
		order.prev.next = order.next
	} else {
		unit.head = order.next
	}

	if order.next != nil {
		order.next.prev = order.prev
	} else {
		unit.tail = order.prev
	}

	// Clear pointers to avoid leaks
	order.next = nil
	order.prev = nil

	unit.totalSize = unit.totalSize.Sub(order.Size)
	unit.count--
	delete(q.orders, id)
	q.totalOrders--

	if unit.count == 0 {
		q.depthList.RemoveElement(skipElement)
		delete(q.priceList, price.String())
		q.depths--
	}
}

// updateOrderSize updates the size of an order in-place.
// This is used when the size is decreased, preserving the order's priority.
func (q *queue) updateOrderSize(id string, newSize decimal.Decimal) {
	order, ok := q.orders[id]
	if !ok {
		return
	}

	skipElement, ok := q.priceList[order.Price.String()]
	if ok {
		unit, _ := skipElement.Value.(*priceUnit)
		diff := order.Size.Sub(newSize)
		unit.totalSize = unit.totalSize.Sub(diff)
		order.Size = newSize
	}
}

// peekHeadOrder returns the order at the front of the queue (best price)
// without removing it.
func (q *queue) peekHeadOrder() *Order {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}

	unit, _ := el.Value.(*priceUnit)
	return unit.head
}

// popHeadOrder removes and returns the order at the front of the queue.
func (q *queue) popHeadOrder() *Order {
	ord := q.peekHeadOrder()

	if ord != nil {
		q.removeOrder(ord.Price, ord.ID)
	}

	return ord
}

// satisfiedSize sums the visible size of every resting order whose price
// crosses limitPrice for a taker on the opposite side. Levels are walked
// best-first, so the scan stops at the first non-crossing level.
// The queue is not mutated.
func (q *queue) satisfiedSize(limitPrice decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero

	el := q.depthList.Front()
	for el != nil {
		unit, _ := el.Value.(*priceUnit)

		if q.side == Sell && unit.price.GreaterThan(limitPrice) ||
			q.side == Buy && unit.price.LessThan(limitPrice) {
			break
		}

		sum = sum.Add(unit.totalSize)
		el = el.Next()
	}

	return sum
}

// orderCount returns the total number of orders in the queue.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return q.depths
}

// toSnapshot serializes the queue into a slice of Order structs.
// It iterates the skip list (price levels) and then the linked list
// (orders) to preserve priority.
func (q *queue) toSnapshot() []Order {
	snapshots := make([]Order, 0, q.totalOrders)

	elem := q.depthList.Front()
	for elem != nil {
		unit := elem.Value.(*priceUnit)

		order := unit.head
		for order != nil {
			snapshots = append(snapshots, Order{
				ID:          order.ID,
				Side:        order.Side,
				Price:       order.Price,
				Size:        order.Size,
				Type:        order.Type,
				Sequence:    order.Sequence,
				Timestamp:   order.Timestamp,
				DisplaySize: order.DisplaySize,
				TotalSize:   order.TotalSize,
			})
			order = order.next
		}

		elem = elem.Next()
	}

	return snapshots
}

// depth returns the order book depth up to the specified limit.
func (q *queue) depth(limit uint32) []*DepthItem {
	result := make([]*DepthItem, 0, limit)

	el := q.depthList.Front()

	var i uint32 = 0
	for i < limit && el != nil {
		unit, _ := el.Value.(*priceUnit)
		d := DepthItem{
			Price: unit.price,
			Size:  unit.totalSize,
			Count: unit.count,
		}

		result = append(result, &d)

		el = el.Next()
		i++
	}

	return result
}

// drain pops every order in priority order and leaves the queue empty.
// Used by the end-of-session book report, which is destructive by
// contract.
func (q *queue) drain() []*Order {
	result := make([]*Order, 0, q.totalOrders)

	for {
		ord := q.popHeadOrder()
		if ord == nil {
			return result
		}
		result = append(result, ord)
	}
}
