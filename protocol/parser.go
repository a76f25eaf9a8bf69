package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownCommand   = errors.New("unknown command keyword")
	ErrUnknownOrderType = errors.New("unknown order type")
	ErrUnknownSide      = errors.New("unknown side")
	ErrMalformedCommand = errors.New("malformed command")
)

// Parse turns one input line into a Command.
// Field layout:
//
//	SUB LO  <side> <id> <qty> <price>
//	SUB MO  <side> <id> <qty>
//	SUB IOC <side> <id> <qty> <price>
//	SUB FOK <side> <id> <qty> <price>
//	SUB ICE <side> <id> <totalQty> <price> <displaySize>
//	CXL <id>
//	CRP <id> <qty> <price>
//	END
func Parse(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrMalformedCommand
	}

	switch fields[0] {
	case KeywordSubmit:
		return parseSubmit(fields)
	case KeywordCancel:
		if len(fields) != 2 {
			return nil, ErrMalformedCommand
		}
		return &Command{Type: CmdCancel, OrderID: fields[1]}, nil
	case KeywordReplace:
		if len(fields) != 4 {
			return nil, ErrMalformedCommand
		}
		qty, err := parseAmount(fields[2])
		if err != nil {
			return nil, err
		}
		price, err := parseAmount(fields[3])
		if err != nil {
			return nil, err
		}
		return &Command{Type: CmdReplace, OrderID: fields[1], Quantity: qty, Price: price}, nil
	case KeywordEnd:
		if len(fields) != 1 {
			return nil, ErrMalformedCommand
		}
		return &Command{Type: CmdEnd}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

func parseSubmit(fields []string) (*Command, error) {
	if len(fields) < 5 {
		return nil, ErrMalformedCommand
	}

	side, err := parseSide(fields[2])
	if err != nil {
		return nil, err
	}

	cmd := &Command{
		Type:    CmdSubmit,
		Side:    side,
		OrderID: fields[3],
	}

	if cmd.Quantity, err = parseAmount(fields[4]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case TokenMarket:
		if len(fields) != 5 {
			return nil, ErrMalformedCommand
		}
		cmd.OrderType = OrderTypeMarket
		return cmd, nil
	case TokenLimit, TokenIOC, TokenFOK:
		if len(fields) != 6 {
			return nil, ErrMalformedCommand
		}
		switch fields[1] {
		case TokenLimit:
			cmd.OrderType = OrderTypeLimit
		case TokenIOC:
			cmd.OrderType = OrderTypeIOC
		case TokenFOK:
			cmd.OrderType = OrderTypeFOK
		}
		if cmd.Price, err = parseAmount(fields[5]); err != nil {
			return nil, err
		}
		return cmd, nil
	case TokenIceberg:
		if len(fields) != 7 {
			return nil, ErrMalformedCommand
		}
		cmd.OrderType = OrderTypeIceberg
		if cmd.Price, err = parseAmount(fields[5]); err != nil {
			return nil, err
		}
		if cmd.Display, err = parseAmount(fields[6]); err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrderType, fields[1])
	}
}

func parseSide(token string) (Side, error) {
	switch token {
	case TokenBuy:
		return SideBuy, nil
	case TokenSell:
		return SideSell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSide, token)
	}
}

func parseAmount(token string) (int64, error) {
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedCommand, token)
	}
	return v, nil
}
