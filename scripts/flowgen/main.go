package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/netip"
	"os"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/sirupsen/logrus"
)

// wellKnownPorts makes a share of the generated records hit typical lookup entries.
var wellKnownPorts = []int{22, 23, 25, 53, 68, 80, 110, 143, 443, 993, 3389}

var protocols = []layers.IPProtocol{
	layers.IPProtocolTCP, layers.IPProtocolTCP, layers.IPProtocolTCP,
	layers.IPProtocolUDP, layers.IPProtocolICMPv4,
}

func main() {
	outputFile := flag.String("o", "flow_log.txt", "Output flow log file path")
	recordCount := flag.Int("c", 1000, "Number of records to generate")
	malformed := flag.Float64("malformed", 0, "Fraction of records written with missing fields")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		logrus.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	logrus.Infof("Generating %d records into %s...", *recordCount, *outputFile)
	start := time.Now().Add(-time.Hour).Unix()

	for i := 0; i < *recordCount; i++ {
		if (i+1)%100000 == 0 {
			logrus.Infof("Generated %d records...", i+1)
		}

		proto := protocols[rand.IntN(len(protocols))]
		dstPort := rand.IntN(65535-1024) + 1024
		if rand.IntN(2) == 0 {
			dstPort = wellKnownPorts[rand.IntN(len(wellKnownPorts))]
		}
		srcPort := rand.IntN(65535-1024) + 1024
		if proto == layers.IPProtocolICMPv4 {
			srcPort, dstPort = 0, 0
		}
		packets := rand.IntN(100) + 1
		ts := start + int64(i)

		line := fmt.Sprintf("2 123456789012 eni-%08x %s %s %d %d %d %d %d %d %d ACCEPT OK",
			rand.Uint32(), randomAddr(), randomAddr(), srcPort, dstPort, int(proto),
			packets, packets*(rand.IntN(1400)+40), ts, ts+60)
		if rand.Float64() < *malformed {
			line = line[:len(line)-len(" ACCEPT OK")]
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			logrus.Fatalf("Failed to write record: %v", err)
		}
	}

	if err := w.Flush(); err != nil {
		logrus.Fatalf("Failed to flush output: %v", err)
	}
	logrus.Infof("Successfully generated %d records into %s.", *recordCount, *outputFile)
}

func randomAddr() netip.Addr {
	return netip.AddrFrom4([4]byte{byte(rand.IntN(256)), byte(rand.IntN(256)), byte(rand.IntN(256)), byte(rand.IntN(256))})
}
