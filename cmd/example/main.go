// Example: creating tables, joining them, and inspecting a parsed
// statement's AST with minidb.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Copubah/minidb"
)

func main() {
	dir, err := os.MkdirTemp("", "minidb-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := minidb.Open(dir)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	fmt.Println("=== minidb Demo ===")
	fmt.Println()

	statements := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT UNIQUE)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, total FLOAT)`,
		`INSERT INTO customers VALUES (1, 'Ada Lovelace', 'ada@example.com')`,
		`INSERT INTO customers VALUES (2, 'Grace Hopper', 'grace@example.com')`,
		`INSERT INTO orders VALUES (1, 1, 42.50)`,
		`INSERT INTO orders VALUES (2, 1, 17.00)`,
		`INSERT INTO orders VALUES (3, 2, 99.99)`,
	}
	for _, sql := range statements {
		if _, err := db.Execute(sql); err != nil {
			log.Fatalf("executing %q: %v", sql, err)
		}
	}

	res, err := db.Execute(`
		SELECT customers.name, orders.total
		FROM customers
		JOIN orders ON customers.id = orders.customer_id
		WHERE orders.total > 20.0
		ORDER BY orders.total DESC
	`)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Orders over 20.00, by customer:")
	for _, row := range res.Rows {
		fmt.Printf("  %-16s %v\n", row[0].Str, row[1].Flt)
	}

	// A statement can also be parsed without running it, to inspect the
	// shape of a query before deciding whether to execute it.
	stmt, errs := minidb.Parse(`SELECT id, name FROM customers WHERE id = 1`)
	if len(errs) > 0 {
		log.Fatalf("parse errors: %v", errs)
	}
	if sel, ok := stmt.(*minidb.SelectStatement); ok {
		fmt.Printf("\nParsed a SELECT against %q with %d projected column(s)\n",
			sel.From.Name, len(sel.Projection))
	}
}
