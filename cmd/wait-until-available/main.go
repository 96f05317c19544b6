package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"
)

// Blocks until the contacts-sync daemon answers its health endpoint. Useful
// in scripts that start the daemon and then run smoke tests against it.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the contacts-sync daemon")
	flag.Parse()

	totalWaitTime := 0
	for {
		res, err := http.Get(*addr + "/healthz")
		if err == nil {
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				break
			}
			fmt.Println(res.Status)
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds\n", totalWaitTime)
		time.Sleep(5 * time.Second)
	}
}
