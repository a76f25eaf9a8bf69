package match

// CalculateDepthChange maps a BookLog to the depth delta it implies.
// Note: for LogTypeMatch, the side returned is the maker's side (opposite
// of the log's side).
func CalculateDepthChange(log *BookLog) DepthChange {
	switch log.Type {
	case LogTypeOpen:
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size,
		}
	case LogTypeCancel:
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size.Neg(),
		}
	case LogTypeMatch:
		// Match reduces liquidity from the maker side.
		// The log.Side is the taker's side, so we update the opposite side.
		makerSide := Buy
		if log.Side == Buy {
			makerSide = Sell
		}
		return DepthChange{
			Side:     makerSide,
			Price:    log.Price,
			SizeDiff: log.Size.Neg(),
		}
	case LogTypeAmend:
		// Priority lost (price changed or size increased): the old order
		// leaves the book here; the replacement arrives in a following
		// Open log.
		if !log.OldPrice.Equal(log.Price) || log.Size.GreaterThan(log.OldSize) {
			return DepthChange{
				Side:     log.Side,
				Price:    log.OldPrice,
				SizeDiff: log.OldSize.Neg(),
			}
		}

		// Priority kept (price same and size decreased): in-place update,
		// the difference is (NewSize - OldSize).
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size.Sub(log.OldSize),
		}
	case LogTypeReject:
		// Rejected orders never entered the book, so no depth change.
		return DepthChange{}
	}

	return DepthChange{}
}
