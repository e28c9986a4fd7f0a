package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/crypto"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	s := store.NewMemStore()
	return New(s, nil), s
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestGetProducerRendersAddressAndPreferences(t *testing.T) {
	srv, s := newTestServer(t)
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 7, TotalVotes: uint256.NewInt(42), Preferences: types.ProducerPreferences{MaxBlockSize: 900}}))
	require.NoError(t, s.ProducerConfigs().Put(&types.ProducerConfig{Owner: 7, PackedKey: []byte("key")}))

	req := httptest.NewRequest(http.MethodGet, "/producers/7", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view producerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, uint64(7), view.Owner)
	require.Equal(t, crypto.NewAddress(7).String(), view.Address)
	require.Equal(t, "42", view.TotalVotes)
	require.True(t, view.Active)
	require.Equal(t, uint32(900), view.Preferences.MaxBlockSize)
}

func TestGetProducerNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/producers/99", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducersOrdersByVotesDescending(t *testing.T) {
	srv, s := newTestServer(t)
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 1, TotalVotes: uint256.NewInt(10)}))
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 2, TotalVotes: uint256.NewInt(30)}))
	require.NoError(t, s.ProducerConfigs().Put(&types.ProducerConfig{Owner: 1}))
	require.NoError(t, s.ProducerConfigs().Put(&types.ProducerConfig{Owner: 2}))

	req := httptest.NewRequest(http.MethodGet, "/producers", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []producerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	require.Equal(t, uint64(2), views[0].Owner)
	require.Equal(t, uint64(1), views[1].Owner)
}

func TestGetVoterRendersProxyAndProducerAddresses(t *testing.T) {
	srv, s := newTestServer(t)
	require.NoError(t, s.Voters().Put(&types.Voter{Owner: 5, Proxy: 9, ProxiedVotes: uint256.NewInt(0), Producers: []uint64{1, 2}}))

	req := httptest.NewRequest(http.MethodGet, "/voters/5", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view voterView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, crypto.NewAddress(5).String(), view.Address)
	require.Equal(t, crypto.NewAddress(9).String(), view.Proxy)
	require.Equal(t, []string{crypto.NewAddress(1).String(), crypto.NewAddress(2).String()}, view.Producers)
}

func TestGetUnstakeRequestRendersAccountAddress(t *testing.T) {
	srv, s := newTestServer(t)
	require.NoError(t, s.UnstakeRequests().Put(&types.UnstakeRequest{ID: 3, Account: 11, CurrentAmount: 50, WeeklyRefundAmount: 5, NextRefundTime: 1000}))

	req := httptest.NewRequest(http.MethodGet, "/unstake/3", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view unstakeRequestView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, crypto.NewAddress(11).String(), view.Account)
	require.Equal(t, uint64(50), view.CurrentAmount)
}

func TestGetUnstakeRequestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/unstake/404", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
