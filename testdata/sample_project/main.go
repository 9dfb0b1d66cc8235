package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"sample/auth"
)

type item struct {
	SKU   string `json:"sku"`
	Count int    `json:"count"`
}

type inventory struct {
	mu    sync.Mutex
	items map[string]int
}

func (inv *inventory) list(w http.ResponseWriter, r *http.Request) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]item, 0, len(inv.items))
	for sku, n := range inv.items {
		out = append(out, item{SKU: sku, Count: n})
	}
	json.NewEncoder(w).Encode(out)
}

func (inv *inventory) adjust(w http.ResponseWriter, r *http.Request) {
	var in item
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	inv.mu.Lock()
	inv.items[in.SKU] += in.Count
	inv.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func main() {
	inv := &inventory{items: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items", inv.list)
	mux.Handle("POST /items", auth.RequireKey(http.HandlerFunc(inv.adjust)))
	log.Fatal(http.ListenAndServe(":8080", mux))
}
