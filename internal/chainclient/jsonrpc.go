package chainclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/defisafe/walletd/internal/walleterr"
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// jsonrpcClient is a minimal JSON-RPC 2.0 caller shared by EVMClient and
// BitcoinClient. No RPC client library is available in the retrieval
// pack, so requests are built directly over net/http + encoding/json.
type jsonrpcClient struct {
	url        string
	httpClient *http.Client
}

func newJSONRPCClient(url string) *jsonrpcClient {
	return &jsonrpcClient{url: url, httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (c *jsonrpcClient) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, walleterr.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindChainUnavailable, "RPC_UNREACHABLE", "chain RPC request failed", err)
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, walleterr.Wrap(walleterr.KindChainUnavailable, "RPC_DECODE_ERROR", "chain RPC response unreadable", err)
	}
	if decoded.Error != nil {
		return nil, walleterr.New(walleterr.KindChainUnavailable, "RPC_ERROR", decoded.Error.Message)
	}
	return decoded.Result, nil
}
