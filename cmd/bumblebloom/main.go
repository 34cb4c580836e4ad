package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	config "github.com/huhu99/bumblebloom/pkg/config"
	db "github.com/huhu99/bumblebloom/pkg/db"
	hash "github.com/huhu99/bumblebloom/pkg/hash"
	metrics "github.com/huhu99/bumblebloom/pkg/metrics"
	recovery "github.com/huhu99/bumblebloom/pkg/recovery"
	repl "github.com/huhu99/bumblebloom/pkg/repl"

	uuid "github.com/google/uuid"
)

// Default port 8335 (BEES).
const DEFAULT_PORT int = 8335

// Listens for SIGINT or SIGTERM and saves every filter before exiting.
func setupCloseHandler(database *db.Database) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Print("closehandler invoked")
		if err := database.Close(); err != nil {
			log.Print(err)
		}
		os.Exit(0)
	}()
}

// Start listening for connections at port `port`.
func startServer(r *repl.REPL, prompt string, port int) {
	// Handle a connection by running the repl on it.
	handleConn := func(c net.Conn) {
		defer c.Close()
		r.Run(c, uuid.New(), prompt)
	}
	// Start listening for new connections.
	listener, err := net.Listen("tcp", fmt.Sprintf(":%v", port))
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%v server started listening on localhost:%v\n", config.DBName,
		listener.Addr().(*net.TCPAddr).Port)
	// Handle each connection.
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Print(err)
			continue
		}
		go handleConn(conn)
	}
}

// Start bumblebloom.
func main() {
	// Set up flags.
	var dbFlag = flag.String("db", "data/", "filter folder")
	var portFlag = flag.Int("p", DEFAULT_PORT, "port number")
	var promptFlag = flag.Bool("c", true, "use prompt?")
	var hashFlag = flag.String("hash", hash.XxHashKind.String(), "hash accumulator: [xxhash,murmur]")
	var serverFlag = flag.Bool("server", false, "serve the repl over tcp")
	var recoveryFlag = flag.Bool("recovery", false, "journal mutations and recover on startup")
	var metricsFlag = flag.String("metrics", "", "address to serve /metrics on, e.g. :9090")
	flag.Parse()
	kind, err := hash.ParseKind(*hashFlag)
	if err != nil {
		log.Fatal(err)
	}
	// Open the db; if recovery, prime the database.
	var database *db.Database
	if *recoveryFlag {
		database, err = recovery.Prime(*dbFlag, kind)
	} else {
		database, err = db.Open(*dbFlag, kind)
	}
	if err != nil {
		log.Fatal(err)
	}
	database.SetMetrics(metrics.GetMetrics())
	if *metricsFlag != "" {
		go func() {
			log.Print(metrics.Serve(*metricsFlag))
		}()
	}
	// Setup close conditions.
	defer database.Close()
	setupCloseHandler(database)
	// Get the right REPLs.
	prompt := config.GetPrompt(*promptFlag)
	repls := []*repl.REPL{db.QueryRepl(database)}
	if *recoveryFlag {
		err = database.CreateLogFile(config.LogFileName)
		if err != nil {
			log.Fatal(err)
		}
		rm, err := recovery.NewRecoveryManager(database, config.LogFileName)
		if err != nil {
			log.Fatal(err)
		}
		defer rm.Close()
		if err = rm.Recover(); err != nil {
			log.Print(err)
			log.Fatal("Potentially corrupted journal --- unable to recover")
		}
		repls = append(repls, recovery.RecoveryREPL(database, rm))
	} else {
		repls = append(repls, db.DatabaseRepl(database))
	}
	r, err := repl.CombineRepls(repls)
	if err != nil {
		log.Fatal(err)
	}
	if *serverFlag {
		startServer(r, prompt, *portFlag)
	} else {
		r.Run(nil, uuid.New(), prompt)
	}
}
