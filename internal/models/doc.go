// Package models defines the core domain models for SplitX.
//
// # Models
//
//   - User: Registered account; identities in groups, expenses and settlements are user IDs
//   - Group: A set of members who share expenses
//   - Expense: Money fronted by one member and split among members
//   - Settlement: A recorded payment between two members
//
// Balances and settlement suggestions are not models: they are recomputed from the
// unsettled expenses of a group on every query (see package calculator).
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships are ID strings; services resolve users when needed
// 2. **Unix timestamps**: all times are int64 seconds, matching the storage layer
// 3. **Derived data stays derived**: split percentages are informational only
package models
