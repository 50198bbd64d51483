package model

import (
	"fmt"

	"github.com/gocql/gocql"
)

// ParseConsistency maps a directive enum value to a driver consistency level.
// SERIAL and LOCAL_SERIAL are accepted for reads.
func ParseConsistency(name string) (gocql.Consistency, error) {
	switch name {
	case "ANY":
		return gocql.Any, nil
	case "ONE":
		return gocql.One, nil
	case "TWO":
		return gocql.Two, nil
	case "THREE":
		return gocql.Three, nil
	case "QUORUM":
		return gocql.Quorum, nil
	case "ALL":
		return gocql.All, nil
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum, nil
	case "EACH_QUORUM":
		return gocql.EachQuorum, nil
	case "LOCAL_ONE":
		return gocql.LocalOne, nil
	case "SERIAL":
		return gocql.Consistency(gocql.Serial), nil
	case "LOCAL_SERIAL":
		return gocql.Consistency(gocql.LocalSerial), nil
	default:
		return 0, fmt.Errorf("unknown consistency level %q", name)
	}
}

// ParseSerialConsistency maps a directive enum value to a serial consistency level.
func ParseSerialConsistency(name string) (gocql.SerialConsistency, error) {
	switch name {
	case "SERIAL":
		return gocql.Serial, nil
	case "LOCAL_SERIAL":
		return gocql.LocalSerial, nil
	default:
		return 0, fmt.Errorf("unknown serial consistency level %q", name)
	}
}

// IsSerial reports whether c is a serial read level.
func IsSerial(c gocql.Consistency) bool {
	return c == gocql.Consistency(gocql.Serial) || c == gocql.Consistency(gocql.LocalSerial)
}

// ConsistencyName formats c with the names used by the directives.
func ConsistencyName(c gocql.Consistency) string {
	switch {
	case c == gocql.Consistency(gocql.Serial):
		return "SERIAL"
	case c == gocql.Consistency(gocql.LocalSerial):
		return "LOCAL_SERIAL"
	default:
		return c.String()
	}
}
