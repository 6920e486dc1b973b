// Command inspect dumps pairchat's Badger keyspace as a table, for poking at
// a database offline. Not part of the running service.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/olekukonko/tablewriter"
)

type messageRecord struct {
	ID        uint64 `cbor:"1,keyasint"`
	Sender    string `cbor:"2,keyasint"`
	Recipient string `cbor:"3,keyasint"`
	Content   string `cbor:"4,keyasint"`
	At        int64  `cbor:"5,keyasint"`
}

type userRecord struct {
	ID           string   `cbor:"1,keyasint"`
	Username     string   `cbor:"2,keyasint"`
	PasswordHash string   `cbor:"3,keyasint"`
	Roles        []string `cbor:"4,keyasint"`
	CreatedAt    int64    `cbor:"5,keyasint"`
	LastSeen     int64    `cbor:"6,keyasint"`
}

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or user:)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db path")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Who", "Timestamp", "Detail"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(toRow(key, v))
				return nil
			})
			if err != nil {
				fmt.Printf("Error reading key %s: %v\n", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
}

func toRow(key string, value []byte) []string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m messageRecord
		if err := cbor.Unmarshal(value, &m); err != nil {
			return []string{key, "?", "?", "unreadable: " + err.Error()}
		}
		return []string{
			key,
			m.Sender + " -> " + m.Recipient,
			time.Unix(0, m.At).UTC().Format(time.RFC3339),
			fmt.Sprintf("id=%d len=%d", m.ID, len(m.Content)),
		}
	case strings.HasPrefix(key, "user:"):
		var u userRecord
		if err := cbor.Unmarshal(value, &u); err != nil {
			return []string{key, "?", "?", "unreadable: " + err.Error()}
		}
		lastSeen := "-"
		if u.LastSeen != 0 {
			lastSeen = time.Unix(0, u.LastSeen).UTC().Format(time.RFC3339)
		}
		return []string{key, u.Username, lastSeen, "roles=" + strings.Join(u.Roles, ",")}
	default:
		return []string{key, "-", "-", fmt.Sprintf("%d bytes", len(value))}
	}
}
