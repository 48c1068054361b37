/*
Framework implements the event loop of the trading core.

# Module
  - inbound queue: single entry point fed by pollers and the transaction manager
  - dispatch loop: single thread classifying each event into its mailbox
  - coalescing mailbox: order book snapshots, newest wins
  - fifo mailboxes: order lifecycle, query responses, transaction results
  - transaction manager: nonce-sequenced submission with in-order results

# Source
 1. order book snapshots and order events from external pollers
 2. query responses from the data layer
 3. transaction results looped back by the transaction manager

# Produce
  - strategy callback invocations, one consumer loop per event kind
*/
package framework
