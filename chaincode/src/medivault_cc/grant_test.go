package main

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"github.com/google/uuid"
)

var sampleGranteeAsBase64 = base64.StdEncoding.EncodeToString([]byte("grantee-address"))

func getSampleGrantAllRecords() grant.Grant {
	return grant.Grant{
		ID:         "grant-1",
		Owner:      sampleOwner1AsBase64,
		Grantee:    sampleGranteeAsBase64,
		ScopeType:  grant.AllRecords,
		Permission: grant.Read,
		ExpiresAt:  time.Now().Add(time.Hour),
		Reason:     "半年期随访",
	}
}

func getSampleGrantRecordSet() grant.Grant {
	return grant.Grant{
		ID:         "grant-2",
		Owner:      sampleOwner1AsBase64,
		Grantee:    sampleGranteeAsBase64,
		ScopeType:  grant.RecordSet,
		RecordIDs:  []string{"record-1"},
		Permission: grant.Read,
		ExpiresAt:  time.Now().Add(time.Hour),
		Reason:     "会诊需要",
	}
}

func TestCreateGrantWithNormalGrant(t *testing.T) {
	targetFunction := "createGrant"

	stub := createMockStub(t, "TestCreateGrantWithNormalGrant")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the arg
	sampleGrant := getSampleGrantAllRecords()
	grantBytes, _ := json.Marshal(sampleGrant)

	// Invoke with sampleGrant and expect the response status to be OK
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), grantBytes})
	expectResponseStatusOK(t, &resp)

	// Check if the stored grant can be parsed
	grantStoredBytes := stub.State[getKeyForGrant(sampleGrant.ID)]
	grantStored := grant.Grant{}
	if err := json.Unmarshal(grantStoredBytes, &grantStored); err != nil {
		testLogger.Infof("Cannot read stored grant: %v\n", err)
		t.FailNow()
	}

	// Check if the stored grant is correct. The creation time comes from the
	// transaction proposal, not from the submitted document.
	expectEqual(t, sampleGrant.ID, grantStored.ID)
	expectEqual(t, sampleGrant.Owner, grantStored.Owner)
	expectEqual(t, sampleGrant.Grantee, grantStored.Grantee)
	expectEqual(t, sampleGrant.ScopeType, grantStored.ScopeType)
	expectEqual(t, sampleGrant.Permission, grantStored.Permission)
	expectEqual(t, false, grantStored.CreatedAt.IsZero())

	// Check if the creator is recorded for the revocation check
	creator, err := getPKDERFromCertString(exampleCertUser1)
	if err != nil {
		testLogger.Infof("Error parsing certificate: %v\n", err)
		t.FailNow()
	}
	expectStateEqual(t, stub, getKeyForGrantCreator(sampleGrant.ID), []byte(base64.StdEncoding.EncodeToString(creator)))
}

func TestCreateGrantWithDuplicateGrantIDs(t *testing.T) {
	targetFunction := "createGrant"

	stub := createMockStub(t, "TestCreateGrantWithDuplicateGrantIDs")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the arg
	sampleGrant := getSampleGrantAllRecords()
	grantBytes, _ := json.Marshal(sampleGrant)

	// Invoke with sampleGrant and expect the response status to be OK
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), grantBytes})
	expectResponseStatusOK(t, &resp)

	// Invoke again with the same grant ID and expect the response status to be ERROR
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), grantBytes})
	expectResponseStatusERROR(t, &resp)
}

func TestCreateGrantForOwnerSelf(t *testing.T) {
	targetFunction := "createGrant"

	stub := createMockStub(t, "TestCreateGrantForOwnerSelf")
	_ = initChaincode(stub, [][]byte{})

	// Prepare a grant whose grantee is the owner herself
	sampleGrant := getSampleGrantAllRecords()
	sampleGrant.Grantee = sampleGrant.Owner
	grantBytes, _ := json.Marshal(sampleGrant)

	// Invoke and expect the response status to be ERROR
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), grantBytes})
	expectResponseStatusERROR(t, &resp)
}

func TestCreateGrantWithEmptyRecordSet(t *testing.T) {
	targetFunction := "createGrant"

	stub := createMockStub(t, "TestCreateGrantWithEmptyRecordSet")
	_ = initChaincode(stub, [][]byte{})

	// Prepare a record-set grant that lists no record IDs
	sampleGrant := getSampleGrantRecordSet()
	sampleGrant.RecordIDs = nil
	grantBytes, _ := json.Marshal(sampleGrant)

	// Invoke and expect the response status to be ERROR
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), grantBytes})
	expectResponseStatusERROR(t, &resp)
}

func TestCreateGrantWithPastExpiry(t *testing.T) {
	targetFunction := "createGrant"

	stub := createMockStub(t, "TestCreateGrantWithPastExpiry")
	_ = initChaincode(stub, [][]byte{})

	// Prepare a grant that is already expired at creation
	sampleGrant := getSampleGrantAllRecords()
	sampleGrant.ExpiresAt = time.Now().Add(-time.Hour)
	grantBytes, _ := json.Marshal(sampleGrant)

	// Invoke and expect the response status to be ERROR
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), grantBytes})
	expectResponseStatusERROR(t, &resp)
}

func TestGetGrantWithNormalGrant(t *testing.T) {
	stub := createMockStub(t, "TestGetGrantWithNormalGrant")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the state with sampleGrant
	sampleGrant := getSampleGrantRecordSet()
	grantBytes, _ := json.Marshal(sampleGrant)

	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("createGrant"), grantBytes})
	expectResponseStatusOK(t, &resp)

	// Invoke getGrant and expect the response status to be OK
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("getGrant"), []byte(sampleGrant.ID)})
	expectResponseStatusOK(t, &resp)

	// Check if the returned grant is correct
	grantStored := grant.Grant{}
	if err := json.Unmarshal(resp.Payload, &grantStored); err != nil {
		testLogger.Infof("Cannot read returned grant: %v\n", err)
		t.FailNow()
	}

	expectEqual(t, sampleGrant.ID, grantStored.ID)
	expectEqual(t, sampleGrant.RecordIDs, grantStored.RecordIDs)
}

func TestGetGrantWithNonExistentID(t *testing.T) {
	stub := createMockStub(t, "TestGetGrantWithNonExistentID")
	_ = initChaincode(stub, [][]byte{})

	// Invoke getGrant with a non-existent grant ID and expect codeNotFound
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("getGrant"), []byte("grant-404")})
	expectResponseStatusERROR(t, &resp)
	expectStringEndsWith(t, errorcode.CodeNotFound, resp.Message)
}

func TestRevokeGrantByCreator(t *testing.T) {
	stub := createMockStub(t, "TestRevokeGrantByCreator")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the state with sampleGrant
	sampleGrant := getSampleGrantAllRecords()
	grantBytes, _ := json.Marshal(sampleGrant)

	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("createGrant"), grantBytes})
	expectResponseStatusOK(t, &resp)

	// Invoke revokeGrant as the creator and expect the response status to be OK
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("revokeGrant"), []byte(sampleGrant.ID)})
	expectResponseStatusOK(t, &resp)

	// The revoked grant should no longer be retrievable
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("getGrant"), []byte(sampleGrant.ID)})
	expectResponseStatusERROR(t, &resp)
	expectStringEndsWith(t, errorcode.CodeNotFound, resp.Message)

	// The grantee index should no longer list the grant
	it, err := stub.GetStateByPartialCompositeKey("grantee~grantid", []string{sampleGrant.Grantee})
	if err != nil {
		testLogger.Infof("Cannot query index 'grantee~grantid': %v\n", err)
		t.FailNow()
	}

	defer it.Close()

	expectEqual(t, false, it.HasNext())
}

func TestRevokeGrantByNonCreator(t *testing.T) {
	stub := createMockStub(t, "TestRevokeGrantByNonCreator")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the state with sampleGrant created by user 1
	sampleGrant := getSampleGrantAllRecords()
	grantBytes, _ := json.Marshal(sampleGrant)

	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("createGrant"), grantBytes})
	expectResponseStatusOK(t, &resp)

	// Invoke revokeGrant as user 2 and expect codeForbidden
	setMockStubCreator(t, stub, "Org1MSP", []byte(exampleCertUser2))
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("revokeGrant"), []byte(sampleGrant.ID)})
	expectResponseStatusERROR(t, &resp)
	expectStringEndsWith(t, errorcode.CodeForbidden, resp.Message)

	// The grant should still be retrievable
	setMockStubCreator(t, stub, "Org1MSP", []byte(exampleCertUser1))
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("getGrant"), []byte(sampleGrant.ID)})
	expectResponseStatusOK(t, &resp)
}

func TestRevokeGrantWithNonExistentID(t *testing.T) {
	stub := createMockStub(t, "TestRevokeGrantWithNonExistentID")
	_ = initChaincode(stub, [][]byte{})

	// Invoke revokeGrant with a non-existent grant ID and expect codeNotFound
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("revokeGrant"), []byte("grant-404")})
	expectResponseStatusERROR(t, &resp)
	expectStringEndsWith(t, errorcode.CodeNotFound, resp.Message)
}
