package recovery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	uuid "github.com/google/uuid"
)

/*
   Logs come in the following forms:

   CREATE log -- a filter was created;
   < create name bits times >

   ADD log -- an item was added to a filter;
   < Tx, add, name, item >

   CLEAR log -- every bit of a filter was unset;
   < Tx, clear, name >

   CHECKPOINT log -- all filters were flushed and snapshotted:
   < checkpoint >
*/

// A log.
type Log interface {
	toString() string
}

var uuidPattern string = "[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}"

// Filter names, as accepted by db.ValidateFilterName.
var namePattern string = "[A-Za-z0-9]+"

var (
	createExp     = regexp.MustCompile(fmt.Sprintf(`^< create (%s) (\d+) (\d+) >$`, namePattern))
	addExp        = regexp.MustCompile(fmt.Sprintf(`^< (%s), add, (%s), (\S+) >$`, uuidPattern, namePattern))
	clearExp      = regexp.MustCompile(fmt.Sprintf(`^< (%s), clear, (%s) >$`, uuidPattern, namePattern))
	checkpointExp = regexp.MustCompile(`^< checkpoint >$`)
)

var ErrBadLog = errors.New("could not parse log")

// Convert a textual log to its respective struct.
func FromString(s string) (Log, error) {
	switch {
	case createExp.MatchString(s):
		expStrs := createExp.FindStringSubmatch(s)
		bitsNum, err := strconv.ParseUint(expStrs[2], 10, 0)
		if err != nil {
			return nil, err
		}
		times, err := strconv.ParseUint(expStrs[3], 10, 0)
		if err != nil {
			return nil, err
		}
		return &createLog{name: expStrs[1], bitsNum: uint(bitsNum), times: uint(times)}, nil
	case addExp.MatchString(s):
		expStrs := addExp.FindStringSubmatch(s)
		return &addLog{id: uuid.MustParse(expStrs[1]), name: expStrs[2], item: expStrs[3]}, nil
	case clearExp.MatchString(s):
		expStrs := clearExp.FindStringSubmatch(s)
		return &clearLog{id: uuid.MustParse(expStrs[1]), name: expStrs[2]}, nil
	case checkpointExp.MatchString(s):
		return &checkpointLog{}, nil
	default:
		return nil, ErrBadLog
	}
}

// Log for a filter creation.
type createLog struct {
	name    string
	bitsNum uint
	times   uint
}

func (cl *createLog) toString() string {
	return fmt.Sprintf("< create %s %d %d >\n", cl.name, cl.bitsNum, cl.times)
}

// Log for an added item.
type addLog struct {
	id   uuid.UUID
	name string
	item string
}

func (al *addLog) toString() string {
	return fmt.Sprintf("< %s, add, %s, %s >\n", al.id.String(), al.name, al.item)
}

// Log for a cleared filter.
type clearLog struct {
	id   uuid.UUID
	name string
}

func (cl *clearLog) toString() string {
	return fmt.Sprintf("< %s, clear, %s >\n", cl.id.String(), cl.name)
}

// Log for a checkpoint.
type checkpointLog struct{}

func (cl *checkpointLog) toString() string {
	return "< checkpoint >\n"
}
