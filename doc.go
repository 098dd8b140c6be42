// Package tradebook is the accounting engine of a discretionary equity trade
// journal. It is pure: it reads snapshots of trades and capital records and
// returns derived figures, it never mutates its inputs nor performs I/O.
//
// The engine is organized as:
//   - Lot Ledger: decomposition of a trade into entry and exit lots, and FIFO
//     matching of the exits against the entries (see MatchFIFO).
//   - P/L Calculator: realized and unrealized P/L, average prices, quantities,
//     position status and ratios such as reward:risk or stock move (see Calculate).
//   - Accounting Method Resolver: attribution of realized P/L to the exit months
//     (cash) or to the entry month (accrual) (see Attribute).
//   - True Portfolio Ledger: month by month capital built from yearly starting
//     capital, monthly overrides, deposits, withdrawals and realized P/L (see
//     TruePortfolio).
//   - Risk/Heat Aggregator: open heat, allocation and PF impact as percentages
//     of the portfolio size (see OpenHeat).
//
// A Journal gathers trades and capital records, Journal.Evaluate computes all
// of the above at once. Journals are persisted as human readable JSONL (see
// DecodeJournal and EncodeJournal).
//
// This package serves as the foundational logic for the `tb` command-line tool.
package tradebook
