package handlers

// @title POS Engine API
// @version 1.0
// @description Point-of-sale engine: carts, sales, cash shifts, stock and party ledgers

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token from /auth/login.

// @tag.name auth
// @tag.description PIN login and session lookups

// @tag.name products
// @tag.description Products, raw materials and stock corrections

// @tag.name recipes
// @tag.description Recipes built from raw materials

// @tag.name cart
// @tag.description The signed-in user's open order

// @tag.name sales
// @tag.description Checkout, history and cancellation

// @tag.name shifts
// @tag.description Cash drawer shifts, expenses and reconciliation

// @tag.name customers
// @tag.description Customer balances and loyalty points

// @tag.name payments
// @tag.description Standalone payments against party balances

// @tag.name purchases
// @tag.description Supplier purchase invoices

// @tag.name backups
// @tag.description Snapshot export and restore

// @tag.name events
// @tag.description WebSocket change feed
