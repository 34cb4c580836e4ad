package recovery

import (
	"errors"
	"os"
	"strings"
	"sync"

	config "github.com/huhu99/bumblebloom/pkg/config"
	db "github.com/huhu99/bumblebloom/pkg/db"
	hash "github.com/huhu99/bumblebloom/pkg/hash"
	"github.com/otiai10/copy"

	uuid "github.com/google/uuid"
)

// Recovery Manager.
type RecoveryManager struct {
	d   *db.Database
	fd  *os.File
	mtx sync.Mutex
}

// Construct a recovery manager.
func NewRecoveryManager(d *db.Database, logName string) (*RecoveryManager, error) {
	fd, err := os.OpenFile(logName, os.O_APPEND|os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	return &RecoveryManager{d: d, fd: fd}, nil
}

// Close the log file.
func (rm *RecoveryManager) Close() error {
	return rm.fd.Close()
}

// Write the string `s` to the log file. Expects rm.mtx to be locked
func (rm *RecoveryManager) writeToBuffer(s string) error {
	_, err := rm.fd.WriteString(s)
	if err != nil {
		return err
	}
	return rm.fd.Sync()
}

// Write a Create log.
func (rm *RecoveryManager) Create(name string, bitsNum uint, times uint) error {
	rm.mtx.Lock()
	defer rm.mtx.Unlock()
	log := createLog{name, bitsNum, times}
	return rm.writeToBuffer(log.toString())
}

// Write an Add log.
func (rm *RecoveryManager) Add(clientId uuid.UUID, name string, item string) error {
	rm.mtx.Lock()
	defer rm.mtx.Unlock()
	log := addLog{clientId, name, item}
	return rm.writeToBuffer(log.toString())
}

// Write a Clear log.
func (rm *RecoveryManager) Clear(clientId uuid.UUID, name string) error {
	rm.mtx.Lock()
	defer rm.mtx.Unlock()
	log := clearLog{clientId, name}
	return rm.writeToBuffer(log.toString())
}

// Flush all filters to disk, write a checkpoint log and snapshot the data folder.
func (rm *RecoveryManager) Checkpoint() error {
	// Mutations journal while holding their update lock, so take it before rm.mtx.
	rm.d.LockAllUpdates()
	defer rm.d.UnlockAllUpdates()
	rm.mtx.Lock()
	defer rm.mtx.Unlock()
	if err := rm.d.Flush(); err != nil {
		return err
	}
	log := checkpointLog{}
	if err := rm.writeToBuffer(log.toString()); err != nil {
		return err
	}
	return rm.Delta()
}

// Redo a given log's action.
func (rm *RecoveryManager) Redo(log Log) error {
	switch log := log.(type) {
	case *createLog:
		_, err := rm.d.CreateFilter(log.name, log.bitsNum, log.times)
		if err != nil && !errors.Is(err, db.ErrFilterExists) {
			return err
		}
	case *addLog:
		return rm.d.Add(log.name, hash.String(log.item))
	case *clearLog:
		return rm.d.Clear(log.name)
	default:
		return errors.New("can only redo create, add and clear logs")
	}
	return nil
}

// Redo every log written since the most recent checkpoint. Run before serving clients.
func (rm *RecoveryManager) Recover() error {
	rm.mtx.Lock()
	logs, err := rm.readLogs()
	rm.mtx.Unlock()
	if err != nil {
		return err
	}
	for _, log := range logs {
		if err := rm.Redo(log); err != nil {
			return err
		}
	}
	return nil
}

// Primes the database for recovery by restoring the last snapshot.
func Prime(folder string, kind hash.Kind) (*db.Database, error) {
	base := strings.TrimSuffix(folder, "/")
	recoveryFolder := base + config.RecoverySuffix + "/"
	dbFolder := base + "/"
	if _, err := os.Stat(dbFolder); err != nil {
		if os.IsNotExist(err) {
			err := os.MkdirAll(recoveryFolder, 0775)
			if err != nil {
				return nil, err
			}
			return db.Open(dbFolder, kind)
		}
		return nil, err
	}
	if _, err := os.Stat(recoveryFolder); err != nil {
		if os.IsNotExist(err) {
			return db.Open(dbFolder, kind)
		}
		return nil, err
	}
	if err := os.RemoveAll(dbFolder); err != nil {
		return nil, err
	}
	if err := copy.Copy(recoveryFolder, dbFolder); err != nil {
		return nil, err
	}
	return db.Open(dbFolder, kind)
}

// Replace the snapshot folder with a copy of the data folder. Expects rm.mtx to be locked.
func (rm *RecoveryManager) Delta() error {
	folder := strings.TrimSuffix(rm.d.GetBasePath(), "/")
	recoveryFolder := folder + config.RecoverySuffix + "/"
	folder += "/"
	if err := os.RemoveAll(recoveryFolder); err != nil {
		return err
	}
	return copy.Copy(folder, recoveryFolder)
}
