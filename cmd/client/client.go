package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/wire"

	"github.com/google/uuid"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the matching engine")
	participant := flag.Uint64("participant", 0, "Participant id (compulsory)")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel', 'deposit', 'withdraw']")

	ticker := flag.String("ticker", "BTC/USDT", "Market symbol")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit', 'ioc' or 'market'")
	price := flag.Uint64("price", 0, "Limit price, in the market's fixed-point precision")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50), fixed-point")

	orderID := flag.Uint64("order", 0, "Order id to cancel, or the first order id to place (incremented per quantity)")

	flag.Parse()

	if *participant == 0 {
		fmt.Println("Error: -participant is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s as participant %d\n", *serverAddr, *participant)

	go readReports(conn)

	side := common.Bid
	if strings.ToLower(*sideStr) == "sell" {
		side = common.Ask
	}

	kind := book.KindLimit
	switch strings.ToLower(*typeStr) {
	case "ioc":
		kind = book.KindImmediateOrCancel
	case "market":
		kind = book.KindMarket
	}

	switch strings.ToLower(*action) {
	case "place":
		for i, qty := range parseQuantities(*qtyStr) {
			msg := &wire.NewOrderMessage{
				BaseMessage:   wire.BaseMessage{TypeOf: wire.NewOrder},
				RequestID:     uuid.New(),
				ParticipantID: *participant,
				OrderID:       *orderID + uint64(i),
				Kind:          kind,
				Side:          side,
				Ticker:        *ticker,
				LimitPrice:    *price,
				Quantity:      qty,
			}
			if _, err := conn.Write(msg.Encode()); err != nil {
				log.Printf("failed to place order (qty %d): %v", qty, err)
				continue
			}
			fmt.Printf("-> sent %s %s order: %s qty=%d price=%d\n", kind, strings.ToUpper(*sideStr), *ticker, qty, *price)
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		msg := &wire.CancelOrderMessage{
			BaseMessage:   wire.BaseMessage{TypeOf: wire.CancelOrder},
			RequestID:     uuid.New(),
			ParticipantID: *participant,
			OrderID:       *orderID,
			Ticker:        *ticker,
		}
		if _, err := conn.Write(msg.Encode()); err != nil {
			log.Printf("failed to send cancel: %v", err)
		} else {
			fmt.Printf("-> sent cancel for order %d\n", *orderID)
		}

	case "deposit", "withdraw":
		transferKind := book.KindDeposit
		if strings.ToLower(*action) == "withdraw" {
			transferKind = book.KindWithdraw
		}
		qtys := parseQuantities(*qtyStr)
		if len(qtys) == 0 {
			log.Fatal("error: -qty is required")
		}
		msg := &wire.TransferMessage{
			BaseMessage:   wire.BaseMessage{TypeOf: wire.Transfer},
			RequestID:     uuid.New(),
			ParticipantID: *participant,
			Kind:          transferKind,
			Quantity:      qtys[0],
			Ticker:        *ticker,
		}
		if _, err := conn.Write(msg.Encode()); err != nil {
			log.Printf("failed to send transfer: %v", err)
		} else {
			fmt.Printf("-> sent %s of %d\n", *action, qtys[0])
		}

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("\nlistening for reports... (press Ctrl+C to exit)")
	select {}
}

func parseQuantities(input string) []uint64 {
	parts := strings.Split(input, ",")
	var result []uint64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("warning: invalid quantity %q, skipping", p)
		}
	}
	return result
}

// readReports continuously reads and prints Report messages from the server.
// Each report is framed by its fixed-length header, whose ticker and error
// lengths give the exact number of body bytes that follow.
func readReports(conn net.Conn) {
	const fixedHeaderLen = 1 + 8 + 8 + 8 + 8 + 1 + 4 + 4
	header := make([]byte, fixedHeaderLen)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := wire.ReportMessageType(header[0])
		participantID := binary.BigEndian.Uint64(header[1:9])
		orderID := binary.BigEndian.Uint64(header[9:17])
		qty := binary.BigEndian.Uint64(header[17:25])
		price := binary.BigEndian.Uint64(header[25:33])
		side := common.Side(header[33])
		tickerLen := binary.BigEndian.Uint32(header[34:38])
		errLen := binary.BigEndian.Uint32(header[38:42])

		varBuf := make([]byte, tickerLen+errLen)
		if len(varBuf) > 0 {
			if _, err := io.ReadFull(conn, varBuf); err != nil {
				log.Printf("error reading report body: %v", err)
				return
			}
		}
		ticker := string(varBuf[:tickerLen])
		errStr := string(varBuf[tickerLen:])

		if msgType == wire.ErrorReport {
			fmt.Printf("\n[ERROR] participant=%d order=%d: %s\n", participantID, orderID, errStr)
			continue
		}
		fmt.Printf("\n[FILL] participant=%d order=%d %s %s qty=%d price=%d\n",
			participantID, orderID, common.SideName(side), ticker, qty, price)
	}
}
