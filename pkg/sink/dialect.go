package sink

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saturnines/catalog-sync/pkg/config"
	"github.com/saturnines/catalog-sync/pkg/errors"
)

type columnKind int

const (
	kindText columnKind = iota
	kindFloat
	kindInt
)

// columnKinds follows catalog.Columns.
var columnKinds = []columnKind{
	kindText, kindText, kindText, kindText, kindText, // productId .. brand
	kindText, kindText, kindText, kindText, kindText, kindText, // categoryId1 .. label3
	kindText, kindText, kindText, kindText, kindText, kindText, // picture1 .. picture6
	kindText, kindText, kindText, kindInt, // offerId, condition, sellerId, bestOfferRank
	kindFloat, kindFloat, kindInt, kindInt, // priceWithoutTax, VATRate, DEA, ecotax
	kindInt, kindText, kindText, kindFloat, kindFloat, // inventoryStock .. additionalShippingCostWithoutTax
	kindInt, kindInt, kindInt, kindText, // minDeliveryTime, maxDeliveryTime, sorecop, createdAt
}

type bindStyle int

const (
	bindQuestion bindStyle = iota // ?
	bindDollar                    // $1
	bindAtP                       // @p1
)

// Dialect captures what differs between the supported SQL backends.
type Dialect struct {
	Driver      string
	bind        bindStyle
	textType    string
	floatType   string
	integerType string

	// guardedCreate wraps CREATE TABLE in an OBJECT_ID check for servers without IF NOT EXISTS.
	guardedCreate bool
}

// DialectFor returns the dialect registered for a configured driver.
func DialectFor(driver config.DriverType) (Dialect, error) {
	switch driver {
	case config.DriverPostgres, config.DriverPGX:
		return Dialect{
			Driver:      string(driver),
			bind:        bindDollar,
			textType:    "TEXT",
			floatType:   "DOUBLE PRECISION",
			integerType: "BIGINT",
		}, nil
	case config.DriverSQLServer:
		return Dialect{
			Driver:        string(driver),
			bind:          bindAtP,
			textType:      "NVARCHAR(MAX)",
			floatType:     "FLOAT",
			integerType:   "BIGINT",
			guardedCreate: true,
		}, nil
	case config.DriverSQLite:
		return Dialect{
			Driver:      string(driver),
			bind:        bindQuestion,
			textType:    "TEXT",
			floatType:   "REAL",
			integerType: "INTEGER",
		}, nil
	default:
		return Dialect{}, errors.WrapError(
			fmt.Errorf("unsupported driver %q", driver),
			errors.ErrConfiguration,
			"select SQL dialect",
		)
	}
}

// Placeholders returns n bind parameters separated by commas.
func (d Dialect) Placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		switch d.bind {
		case bindDollar:
			parts[i] = "$" + strconv.Itoa(i+1)
		case bindAtP:
			parts[i] = "@p" + strconv.Itoa(i+1)
		default:
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// CreateTable returns DDL creating table with the catalog columns only when it is missing.
func (d Dialect) CreateTable(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = col + " " + d.columnType(columnKinds[i])
	}
	body := strings.Join(defs, ",\n\t")

	if d.guardedCreate {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n\t%s\n)", table, table, body)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, body)
}

func (d Dialect) columnType(k columnKind) string {
	switch k {
	case kindFloat:
		return d.floatType
	case kindInt:
		return d.integerType
	default:
		return d.textType
	}
}
