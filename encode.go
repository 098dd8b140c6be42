package tradebook

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/tradebook/date"
)

// This file contains the JSON codec of trades and capital records.
//
// Trades keep the flat field names of the legacy journal: the initial entry is
// "initialQty"@"entry" on "date", the following entries are "pyramidN" and
// the exits "exitN" lots, each with a "Qty", a "Price" and a "Date" field.
// There is no upper bound on N in the codec: lot limits are enforced when a
// trade enters a journal.
//
// A journal is a JSONL stream where each line carries a "command" field:
//
//	{"command":"journal","currency":"INR"}
//	{"command":"trade","id":"..","symbol":"INFY","buySell":"Buy","date":"2024-01-01","initialQty":100,"entry":100,...}
//	{"command":"yearly","year":2024,"startingCapital":500000,"updatedAt":"2024-01-01"}
//	{"command":"override","year":2024,"month":3,"amount":550000}
//	{"command":"change","id":"..","date":"2024-03-15","amount":50000,"description":"bonus"}

// CommandType identifies the record held by a journal line.
type CommandType string

const (
	CmdJournal  CommandType = "journal"
	CmdTrade    CommandType = "trade"
	CmdYearly   CommandType = "yearly"
	CmdOverride CommandType = "override"
	CmdChange   CommandType = "change"
)

// lotJSON is a lot as written with a prefix.
type lotJSON struct {
	Qty   Quantity  `json:"qty"`
	Price Money     `json:"price"`
	Date  date.Date `json:"date"`
}

func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", t.ID)
	w.Append("symbol", t.Symbol)
	w.Append("buySell", t.Direction)
	var initial Lot
	if len(t.Entries) > 0 {
		initial = t.Entries[0]
	}
	w.Append("date", initial.Date)
	w.Append("initialQty", initial.Quantity)
	w.Append("entry", initial.Price)
	for i := 1; i < len(t.Entries); i++ {
		l := t.Entries[i]
		w.PrefixFrom("pyramid"+strconv.Itoa(i), lotJSON{l.Quantity, l.Price, l.Date})
	}
	for i, l := range t.Exits {
		w.PrefixFrom("exit"+strconv.Itoa(i+1), lotJSON{l.Quantity, l.Price, l.Date})
	}
	if !t.StopLoss.IsZero() {
		w.Append("sl", t.StopLoss)
	}
	if !t.TrailingStop.IsZero() {
		w.Append("tsl", t.TrailingStop)
	}
	if t.CMP.IsSet() {
		w.Append("cmp", t.CMP.Value)
		w.Optional("_cmpAutoFetched", t.CMP.Source == Feed)
	}
	return w.MarshalJSON()
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var res Trade
	var initial Lot
	var hasInitial bool
	var cmpAuto bool
	entries := map[int]*Lot{}
	exits := map[int]*Lot{}
	lotOf := func(m map[int]*Lot, i int) *Lot {
		if m[i] == nil {
			m[i] = new(Lot)
		}
		return m[i]
	}

	for key, raw := range fields {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(raw, &res.ID)
		case "symbol":
			err = json.Unmarshal(raw, &res.Symbol)
		case "buySell":
			err = json.Unmarshal(raw, &res.Direction)
		case "date":
			err, hasInitial = json.Unmarshal(raw, &initial.Date), true
		case "initialQty":
			err, hasInitial = json.Unmarshal(raw, &initial.Quantity), true
		case "entry":
			err, hasInitial = json.Unmarshal(raw, &initial.Price), true
		case "sl":
			err = unmarshalNumber(raw, &res.StopLoss)
		case "tsl":
			err = unmarshalNumber(raw, &res.TrailingStop)
		case "cmp":
			err = unmarshalNumber(raw, &res.CMP.Value)
		case "_cmpAutoFetched":
			err = json.Unmarshal(raw, &cmpAuto)
		default:
			kind, i, field, ok := parseLotKey(key)
			if !ok {
				continue // derived or unknown fields are ignored
			}
			var l *Lot
			if kind == "pyramid" {
				l = lotOf(entries, i)
			} else {
				l = lotOf(exits, i)
			}
			switch field {
			case "Qty":
				err = json.Unmarshal(raw, &l.Quantity)
			case "Price":
				err = json.Unmarshal(raw, &l.Price)
			case "Date":
				err = json.Unmarshal(raw, &l.Date)
			}
		}
		if err != nil {
			return fmt.Errorf("invalid field %q: %w", key, err)
		}
	}

	if hasInitial || len(entries) > 0 {
		res.Entries = append(res.Entries, initial)
	}
	res.Entries = append(res.Entries, indexedLots(entries)...)
	res.Exits = indexedLots(exits)
	if cmpAuto {
		res.CMP.Source = Feed
	}
	*t = res
	return nil
}

// unmarshalNumber reads a money amount, accepting null and "" as zero.
func unmarshalNumber(raw json.RawMessage, m *Money) error {
	s := strings.TrimSpace(string(raw))
	if s == "null" || s == `""` {
		*m = Money{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// parseLotKey splits keys like "pyramid2Price" or "exit1Date".
func parseLotKey(key string) (kind string, index int, field string, ok bool) {
	for _, k := range []string{"pyramid", "exit"} {
		rest, found := strings.CutPrefix(key, k)
		if !found {
			continue
		}
		for _, f := range []string{"Qty", "Price", "Date"} {
			num, found := strings.CutSuffix(rest, f)
			if !found {
				continue
			}
			n, err := strconv.Atoi(num)
			if err != nil || n < 1 {
				return "", 0, "", false
			}
			return k, n, f, true
		}
	}
	return "", 0, "", false
}

// indexedLots returns lots 1..max in order, missing indexes as zero lots.
func indexedLots(m map[int]*Lot) []Lot {
	if len(m) == 0 {
		return nil
	}
	last := slices.Max(slices.Collect(maps.Keys(m)))
	res := make([]Lot, last)
	for i, l := range m {
		res[i-1] = *l
	}
	return res
}

func (y YearlyCapital) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("year", y.Year)
	w.Append("startingCapital", y.StartingCapital)
	w.Optional("updatedAt", y.UpdatedAt)
	return w.MarshalJSON()
}

func (y *YearlyCapital) UnmarshalJSON(data []byte) error {
	var temp struct {
		Year            int       `json:"year"`
		StartingCapital Money     `json:"startingCapital"`
		UpdatedAt       date.Date `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*y = YearlyCapital(temp)
	return nil
}

func (o MonthlyOverride) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("year", o.Month.Year)
	w.Append("month", int(o.Month.Month))
	w.Append("amount", o.Amount)
	return w.MarshalJSON()
}

func (o *MonthlyOverride) UnmarshalJSON(data []byte) error {
	var temp struct {
		Year   int             `json:"year"`
		Month  json.RawMessage `json:"month"`
		Amount Money           `json:"amount"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	month, err := decodeMonth(temp.Month)
	if err != nil {
		return err
	}
	*o = MonthlyOverride{Month: date.NewMonth(temp.Year, month), Amount: temp.Amount}
	return nil
}

// decodeMonth reads a month as a number (1-12) or a name ("March").
func decodeMonth(raw json.RawMessage) (time.Month, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid month %d", n)
		}
		return time.Month(n), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid month %s", raw)
	}
	return date.ParseMonthName(s)
}

func (c CapitalChange) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", c.ID)
	w.Append("date", c.Date)
	w.Append("amount", c.Amount)
	w.Optional("description", c.Description)
	return w.MarshalJSON()
}

func (c *CapitalChange) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID          string    `json:"id"`
		Date        date.Date `json:"date"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*c = CapitalChange(temp)
	return nil
}

// DecodeJournal reads a JSONL journal. Every trade is validated against the
// lot limits, an excess exit is handled according to the policy.
func DecodeJournal(r io.Reader, limits Limits, policy ExcessExitPolicy) (*Journal, error) {
	j := NewJournal("")
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := j.decodeLine(line, limits, policy); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return j, nil
}

func (j *Journal) decodeLine(line []byte, limits Limits, policy ExcessExitPolicy) error {
	var identifier struct {
		Command  CommandType `json:"command"`
		Currency string      `json:"currency"`
	}
	if err := json.Unmarshal(line, &identifier); err != nil {
		return fmt.Errorf("could not identify command in %q: %w", line, err)
	}

	switch identifier.Command {
	case CmdJournal:
		if identifier.Currency != "" {
			j.cur = identifier.Currency
		}
		return nil
	case CmdTrade, "":
		// lines without command are trades, as exported by the legacy journal.
		var t Trade
		if err := json.Unmarshal(line, &t); err != nil {
			return err
		}
		if policy == Clamp {
			t = ClampExits(t)
		}
		_, err := j.PutTrade(t, limits)
		return err
	case CmdYearly:
		var y YearlyCapital
		if err := json.Unmarshal(line, &y); err != nil {
			return err
		}
		return j.capital.SetYearly(y)
	case CmdOverride:
		var o MonthlyOverride
		if err := json.Unmarshal(line, &o); err != nil {
			return err
		}
		return j.capital.SetOverride(o)
	case CmdChange:
		var c CapitalChange
		if err := json.Unmarshal(line, &c); err != nil {
			return err
		}
		_, err := j.capital.AddChange(c)
		return err
	default:
		return fmt.Errorf("unknown command: %q", identifier.Command)
	}
}

// EncodeJournal writes a journal in JSONL: the header, the trades in
// insertion order, then the capital records sorted by period.
func EncodeJournal(w io.Writer, j *Journal) error {
	write := func(cmd CommandType, v any) error {
		var o jsonObjectWriter
		o.Append("command", cmd)
		if v != nil {
			o.EmbedFrom(v)
		}
		data, err := o.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write %s: %w", cmd, err)
		}
		return nil
	}

	if err := write(CmdJournal, map[string]string{"currency": j.cur}); err != nil {
		return err
	}
	for _, t := range j.trades {
		if err := write(CmdTrade, t); err != nil {
			return err
		}
	}
	for _, y := range j.capital.Yearly() {
		if err := write(CmdYearly, y); err != nil {
			return err
		}
	}
	for _, o := range j.capital.Overrides() {
		if err := write(CmdOverride, o); err != nil {
			return err
		}
	}
	for _, c := range j.capital.Changes() {
		if err := write(CmdChange, c); err != nil {
			return err
		}
	}
	return nil
}
