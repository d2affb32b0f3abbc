// Package models defines the core domain models for Splitter.
//
// # Models
//
//   - Group: the expense group, with its ordered member list
//   - Member: one participant, optionally with bank payout details
//   - Expense: one recorded money movement (purchase or settlement)
//   - Split: one member's share of an expense, with acceptance tracking
//   - LineItem: a receipt line item that can be claimed by a member
//
// # Design Principles
//
//  1. **Whole-entry writes**: an Expense is the atomic unit; mutations
//     replace the full record, never individual splits.
//  2. **Fixed-point money**: every computed amount is money.Cents; raw
//     split inputs (percentages, share counts) stay float64.
//  3. **Explicit soft delete**: DeletedAt replaces the old reserved
//     "deleted" tag, so Tags carry labels only.
//  4. **Derived strategy**: an expense with line items is always split by
//     exact amounts; SplitStrategy() computes this instead of mutators
//     silently rewriting the stored strategy.
package models
